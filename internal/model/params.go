package model

import (
	"errors"
	"fmt"
	"math"
)

// MachiningParams are the cutting parameters of one feature role.
type MachiningParams struct {
	Depth             float64 `json:"depth"`           // Total depth, negative below the curve
	Entries           int     `json:"entries"`         // Number of equal Z levels
	PlungeDistance    float64 `json:"plunge_distance"` // Length of the ramped plunge arc
	Feed              float64 `json:"feed"`            // Drill feed (mm/min)
	FeedCut           float64 `json:"feed_cut"`
	FeedPlunge        float64 `json:"feed_plunge"`
	FinishPass        float64 `json:"finish_pass"`    // Stock left for the finishing pass, 0 = off
	FinishEntries     int     `json:"finish_entries"` // Levels of a separate finishing run, 0 = single pass
	XYDist            float64 `json:"xy_dist"`        // Pocket stepover as a fraction of the tool diameter
	CircularPocketing bool    `json:"circular_pocketing"`
}

// Normalized clamps p into its documented bounds.
func (p MachiningParams) Normalized() MachiningParams {
	p.Depth = -math.Abs(p.Depth)
	if p.Entries < 1 {
		p.Entries = 1
	}
	if p.FinishEntries < 0 {
		p.FinishEntries = 0
	}
	if p.FinishPass < 0 {
		p.FinishPass = 0
	}
	if p.PlungeDistance <= 0 {
		p.PlungeDistance = 1
	}
	p.Feed = math.Max(1, p.Feed)
	p.FeedCut = math.Max(1, p.FeedCut)
	p.FeedPlunge = math.Max(1, p.FeedPlunge)
	p.XYDist = math.Min(1, math.Max(0.1, p.XYDist))
	return p
}

// GeneralParams are machine-wide settings shared by every feature.
type GeneralParams struct {
	SecPlane  float64 `json:"sec_plane"`  // Retract plane height
	FeedRapid float64 `json:"feed_rapid"` // Feed word written on rapid moves
	CutDiam   float64 `json:"cut_diam"`   // Tool diameter
	Spindle   float64 `json:"spindle"`    // Spindle speed (rpm)
	Tolerance float64 `json:"tolerance"`  // Discretisation step for ramps and freeform curves
}

// DefaultGeneral returns the stock machine settings.
func DefaultGeneral() GeneralParams {
	return GeneralParams{
		SecPlane:  12,
		FeedRapid: 20000,
		CutDiam:   9.525,
		Spindle:   20000,
		Tolerance: 1,
	}
}

// Validate reports the parameters a job cannot run without.
func (g GeneralParams) Validate() error {
	var errs []error
	if g.CutDiam <= 0 {
		errs = append(errs, fmt.Errorf("cut_diam must be positive, got %g", g.CutDiam))
	}
	if g.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance must be positive, got %g", g.Tolerance))
	}
	return errors.Join(errs...)
}

// Normalized clamps g into its documented bounds.
func (g GeneralParams) Normalized() GeneralParams {
	g.FeedRapid = math.Max(1, g.FeedRapid)
	if g.Spindle < 0 {
		g.Spindle = 0
	}
	return g
}

// Preset is a named set of machining parameters per feature role.
type Preset struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Drill       MachiningParams `json:"drill"`
	Engrave     MachiningParams `json:"engrave"`
	Pocket      MachiningParams `json:"pocket"`
	Cut         MachiningParams `json:"cut"`
	General     GeneralParams   `json:"general"`
}

// ParamsFor returns the parameters used for features of the given role.
// Inside and outside cuts share the cut parameters.
func (p Preset) ParamsFor(role FeatureRole) MachiningParams {
	switch role {
	case RoleDrill:
		return p.Drill
	case RoleEngrave:
		return p.Engrave
	case RolePocket:
		return p.Pocket
	default:
		return p.Cut
	}
}

// Built-in presets
var Presets = []Preset{
	{
		Name:        "Plywood 18mm",
		Description: "Through cuts in 18 mm plywood with a 3/8\" end mill",
		Drill:       MachiningParams{Depth: -18, Entries: 3, Feed: 800},
		Engrave:     MachiningParams{Depth: -1, Entries: 1, PlungeDistance: 10, FeedCut: 1500, FeedPlunge: 600},
		Pocket: MachiningParams{Depth: -6, Entries: 2, PlungeDistance: 30, FeedCut: 2000, FeedPlunge: 600,
			XYDist: 0.5},
		Cut: MachiningParams{Depth: -18.5, Entries: 4, PlungeDistance: 50, FeedCut: 2500, FeedPlunge: 800,
			FinishPass: 0.5},
		General: DefaultGeneral(),
	},
	{
		Name:        "MDF 9mm",
		Description: "MDF sheet goods, fewer passes",
		Drill:       MachiningParams{Depth: -9, Entries: 1, Feed: 1000},
		Engrave:     MachiningParams{Depth: -0.5, Entries: 1, PlungeDistance: 10, FeedCut: 2000, FeedPlunge: 800},
		Pocket: MachiningParams{Depth: -4, Entries: 2, PlungeDistance: 30, FeedCut: 3000, FeedPlunge: 800,
			XYDist: 0.6, CircularPocketing: true},
		Cut:     MachiningParams{Depth: -9.5, Entries: 2, PlungeDistance: 40, FeedCut: 3000, FeedPlunge: 1000},
		General: DefaultGeneral(),
	},
	{
		Name:        "Acrylic 3mm",
		Description: "Cast acrylic with a 3 mm single flute",
		Drill:       MachiningParams{Depth: -3.2, Entries: 2, Feed: 300},
		Engrave:     MachiningParams{Depth: -0.3, Entries: 1, PlungeDistance: 5, FeedCut: 900, FeedPlunge: 300},
		Pocket: MachiningParams{Depth: -1.5, Entries: 2, PlungeDistance: 10, FeedCut: 1000, FeedPlunge: 300,
			XYDist: 0.4},
		Cut: MachiningParams{Depth: -3.2, Entries: 3, PlungeDistance: 15, FeedCut: 1000, FeedPlunge: 300,
			FinishPass: 0.2, FinishEntries: 1},
		General: GeneralParams{SecPlane: 5, FeedRapid: 5000, CutDiam: 3, Spindle: 18000, Tolerance: 0.5},
	},
}

// DefaultPreset returns the first built-in preset.
func DefaultPreset() Preset {
	return Presets[0]
}

// GetPreset returns a built-in preset by name, or the default if not found.
func GetPreset(name string) Preset {
	for _, p := range Presets {
		if p.Name == name {
			return p
		}
	}
	return DefaultPreset()
}

// GetPresetNames returns the names of the built-in presets.
func GetPresetNames() []string {
	var names []string
	for _, p := range Presets {
		names = append(names, p.Name)
	}
	return names
}

// FindPreset looks a preset up among custom presets first, then the built-ins.
func FindPreset(name string, custom []Preset) (Preset, bool) {
	for _, p := range custom {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
