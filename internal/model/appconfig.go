package model

// JobOptions control ordering and classification for one run.
type JobOptions struct {
	Sorting        bool `json:"sorting"`         // Sort features by start point (y, x)
	SortClosest    bool `json:"sort_closest"`    // Reorder as a nearest-neighbour tour
	AutoCluster    bool `json:"autocluster"`     // Group features enclosed by outside cuts
	ColorTolerance int  `json:"color_tolerance"` // Per-channel colour slack, 0 = exact match
	MaxPocketDepth int  `json:"max_pocket_depth"` // Offset pocketing nesting limit, 0 = derived
}

// DefaultJobOptions returns the options used for a fresh install.
func DefaultJobOptions() JobOptions {
	return JobOptions{
		Sorting:     true,
		AutoCluster: true,
	}
}

// AppConfig holds application-wide preferences and default selections.
type AppConfig struct {
	DefaultPreset string     `json:"default_preset"`
	DefaultPost   string     `json:"default_post"`
	Options       JobOptions `json:"options"`

	SetupSheet  bool     `json:"setup_sheet"`  // Write a PDF setup sheet next to the program
	OutputDir   string   `json:"output_dir"`   // Empty = next to the input file
	ProgramExt  string   `json:"program_ext"`  // Program file extension, empty = ".nc"
	RecentFiles []string `json:"recent_files"`

	// Hold-down clamps checked against the spindle's dust shoe
	ClampZones    []ClampZone `json:"clamp_zones"`
	ShoeDiameter  float64     `json:"shoe_diameter"`
	ShoeClearance float64     `json:"shoe_clearance"`
}

// ClampZone is a rectangular hold-down area on the machine table, in
// program coordinates.
type ClampZone struct {
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultPreset: DefaultPreset().Name,
		DefaultPost:   DefaultPost().Name,
		Options:       DefaultJobOptions(),
		RecentFiles:   []string{},
		ShoeDiameter:  100,
		ShoeClearance: 5,
	}
}

// ApplyTo copies the configured option defaults into o.
func (c AppConfig) ApplyTo(o *JobOptions) {
	*o = c.Options
}
