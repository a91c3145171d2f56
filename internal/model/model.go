package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/geom"
)

// FeatureRole is the machining operation a shape turns into.
type FeatureRole int

const (
	RoleDrill FeatureRole = iota
	RoleEngrave
	RolePocket
	RoleInsideCut
	RoleOutsideCut
)

var roleNames = map[FeatureRole]string{
	RoleDrill:      "Drill",
	RoleEngrave:    "Engrave",
	RolePocket:     "Pocket",
	RoleInsideCut:  "InsideCut",
	RoleOutsideCut: "OutsideCut",
}

func (r FeatureRole) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("FeatureRole(%d)", int(r))
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (FeatureRole, error) {
	for r, name := range roleNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown feature role %q", s)
}

// MotionClass tags a segment with how the machine travels it.
type MotionClass int

const (
	MotionRapid MotionClass = iota
	MotionPlunge
	MotionCut
)

func (m MotionClass) String() string {
	switch m {
	case MotionRapid:
		return "RAPID"
	case MotionPlunge:
		return "PLUNGE"
	default:
		return "CUT"
	}
}

// PreviewColor returns the colour viewers use to draw segments of class m.
func (m MotionClass) PreviewColor() RGB {
	switch m {
	case MotionRapid:
		return RGB{200, 200, 200}
	case MotionPlunge:
		return RGB{254, 184, 0}
	default:
		return RGB{153, 204, 255}
	}
}

// RGB is an 8-bit colour.
type RGB struct {
	R, G, B uint8
}

var (
	Red     = RGB{255, 0, 0}
	Green   = RGB{0, 255, 0}
	Blue    = RGB{0, 0, 255}
	Magenta = RGB{255, 0, 255}
	White   = RGB{255, 255, 255}
	Black   = RGB{0, 0, 0}
)

var namedColors = map[string]RGB{
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"magenta": Magenta,
	"white":   White,
	"black":   Black,
}

// Near reports whether every channel of c is within tol of o.
func (c RGB) Near(o RGB, tol int) bool {
	return absDiff(c.R, o.R) <= tol && absDiff(c.G, o.G) <= tol && absDiff(c.B, o.B) <= tol
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// ParseColor accepts "#rrggbb", "#rgb", "r,g,b" or a basic colour name.
func ParseColor(s string) (RGB, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("invalid colour %q", s)
		}
		var ch [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
			}
			ch[i] = uint8(v)
		}
		return RGB{ch[0], ch[1], ch[2]}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// ShapeKind distinguishes point and curve input geometry.
type ShapeKind int

const (
	ShapePoint ShapeKind = iota
	ShapeCurve
)

// Shape is one colour-tagged item from a geometry source.
type Shape struct {
	Kind  ShapeKind
	Point geom.Point
	Curve *geom.Curve
	Color RGB
	Label string
}

// Closed reports whether the shape is a closed curve.
func (s Shape) Closed() bool {
	return s.Kind == ShapeCurve && s.Curve != nil && s.Curve.Closed()
}

// Start returns the point a shape is approached from.
func (s Shape) Start() geom.Point {
	if s.Kind == ShapeCurve && s.Curve != nil {
		return s.Curve.Start()
	}
	return s.Point
}

// MotionSegment is a piece of toolpath travelled with one motion class.
type MotionSegment struct {
	Class MotionClass
	Curve *geom.Curve
}

// Feature is one machinable entity derived from one input shape.
type Feature struct {
	ID             string
	Role           FeatureRole
	Compensation   int
	Pocketing      bool
	Source         Shape
	Params         MachiningParams
	CutCurve       *geom.Curve
	Representative geom.Point
	Segments       []MotionSegment
	Cluster        int
	HasChildren    bool
}

// NewFeature creates a feature that belongs to no cluster. The caller
// names it by setting ID.
func NewFeature(role FeatureRole, compensation int, pocketing bool, src Shape) *Feature {
	return &Feature{
		Role:         role,
		Compensation: compensation,
		Pocketing:    pocketing,
		Source:       src,
		Cluster:      -1,
	}
}

// StartPoint is the start of the source shape, used for ordering.
func (f *Feature) StartPoint() geom.Point {
	return f.Source.Start()
}

// Release hands every curve the feature owns back to the kernel. The source
// shape belongs to the geometry source and is left alone.
func (f *Feature) Release(k geom.Kernel) {
	if f.CutCurve != nil {
		k.Release(f.CutCurve)
		f.CutCurve = nil
	}
	for _, s := range f.Segments {
		k.Release(s.Curve)
	}
	f.Segments = nil
}
