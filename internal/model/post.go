package model

// PostTemplate maps motion classes and program sections to code words for
// one controller dialect.
type PostTemplate struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Header []string `json:"header"` // Lines written before the first move
	Footer []string `json:"footer"` // Lines written after the last move

	Rapid   string `json:"rapid"`   // Rapid move word (e.g., "G00")
	Cut     string `json:"cut"`     // Feed move word (e.g., "G01")
	ArcCW   string `json:"arc_cw"`  // Clockwise arc word
	ArcCCW  string `json:"arc_ccw"` // Counter-clockwise arc word
	Feed    string `json:"feed"`    // Feed word prefix (e.g., "F")
	Spindle string `json:"spindle"` // Spindle-on prefix followed by the speed (e.g., "M3 S"), empty = omitted

	// Comment style; an empty prefix disables per-feature comments
	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"`

	RoundTol int `json:"round_tol"` // Decimal places for coordinates
}

// Normalized fills unset code words with their standard values.
func (p PostTemplate) Normalized() PostTemplate {
	if p.Rapid == "" {
		p.Rapid = "G00"
	}
	if p.Cut == "" {
		p.Cut = "G01"
	}
	if p.ArcCW == "" {
		p.ArcCW = "G02"
	}
	if p.ArcCCW == "" {
		p.ArcCCW = "G03"
	}
	if p.Feed == "" {
		p.Feed = "F"
	}
	if p.RoundTol < 0 {
		p.RoundTol = 0
	}
	return p
}

// DefaultPost is the plain metric post used when no other is selected.
func DefaultPost() PostTemplate {
	return PostTemplate{
		Name:        "Default",
		Description: "Metric absolute program, spindle started in the header",
		Header:      []string{"G21", "G90", "G54", "M3"},
		Footer:      []string{"M5"},
		Rapid:       "G00",
		Cut:         "G01",
		ArcCW:       "G02",
		ArcCCW:      "G03",
		Feed:        "F",
		RoundTol:    2,
	}
}

// Built-in post templates
var Posts = []PostTemplate{
	DefaultPost(),
	{
		Name:          "Grbl",
		Description:   "Standard Grbl configuration (Arduino CNC shields)",
		Header:        []string{"G90", "G21", "G17"},
		Footer:        []string{"M5", "M2"},
		Rapid:         "G0",
		Cut:           "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		Feed:          "F",
		Spindle:       "M3 S",
		CommentPrefix: ";",
		RoundTol:      3,
	},
	{
		Name:          "Mach3",
		Description:   "Mach3 CNC control software",
		Header:        []string{"G90", "G21", "G17", "G94"},
		Footer:        []string{"G28 X0 Y0", "M5", "M30"},
		Rapid:         "G0",
		Cut:           "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		Feed:          "F",
		Spindle:       "M3 S",
		CommentPrefix: "(",
		CommentSuffix: ")",
		RoundTol:      4,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		Header:        []string{"G90", "G21", "G17", "G94", "G64 P0.01"},
		Footer:        []string{"M5", "M2"},
		Rapid:         "G0",
		Cut:           "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		Feed:          "F",
		Spindle:       "M3 S",
		CommentPrefix: ";",
		RoundTol:      4,
	},
	{
		Name:          "Generic",
		Description:   "Generic standard GCode",
		Header:        []string{"G90", "G21"},
		Footer:        []string{"M5", "M2"},
		Rapid:         "G0",
		Cut:           "G1",
		ArcCW:         "G2",
		ArcCCW:        "G3",
		Feed:          "F",
		Spindle:       "M3 S",
		CommentPrefix: ";",
		RoundTol:      3,
	},
}

// GetPost returns a built-in post by name, or the default post if not found.
func GetPost(name string) PostTemplate {
	for _, p := range Posts {
		if p.Name == name {
			return p
		}
	}
	return DefaultPost()
}

// GetPostNames returns the names of all built-in posts.
func GetPostNames() []string {
	var names []string
	for _, p := range Posts {
		names = append(names, p.Name)
	}
	return names
}

// FindPost looks a post up among custom templates first, then the built-ins.
func FindPost(name string, custom []PostTemplate) (PostTemplate, bool) {
	for _, p := range custom {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range Posts {
		if p.Name == name {
			return p, true
		}
	}
	return PostTemplate{}, false
}
