package engine

import (
	"github.com/piwi3910/slabcam/internal/model"
)

// Classification is the machining role assigned to one input shape.
type Classification struct {
	Role         model.FeatureRole
	Compensation int
	Pocketing    bool
}

// curveRule maps a curve colour to a role. Rules with closedOnly set ignore
// open curves.
type curveRule struct {
	color      model.RGB
	closedOnly bool
	class      Classification
}

var curveRules = []curveRule{
	{model.Blue, true, Classification{Role: model.RoleInsideCut, Compensation: -1}},
	{model.Red, true, Classification{Role: model.RoleOutsideCut, Compensation: 1}},
	{model.Magenta, true, Classification{Role: model.RolePocket, Compensation: -1, Pocketing: true}},
	{model.Green, false, Classification{Role: model.RoleEngrave}},
}

// Classifier assigns feature roles from shape colours.
type Classifier struct {
	// Tolerance is the largest per-channel difference still accepted as a
	// match. Zero requires exact colours.
	Tolerance int
}

// Classify returns the role of s, or false when the shape does not map to
// any machining operation. Zero reference points are never classified.
func (c Classifier) Classify(s model.Shape) (Classification, bool) {
	switch s.Kind {
	case model.ShapePoint:
		if c.IsZeroReference(s) {
			return Classification{}, false
		}
		return Classification{Role: model.RoleDrill}, true
	case model.ShapeCurve:
		if s.Curve == nil {
			return Classification{}, false
		}
		closed := s.Closed()
		best, bestDist := -1, 0
		for i, r := range curveRules {
			if r.closedOnly && !closed {
				continue
			}
			if !s.Color.Near(r.color, c.Tolerance) {
				continue
			}
			// With a loose tolerance several rules can match; the nearest wins.
			if d := colorDist(s.Color, r.color); best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			return Classification{}, false
		}
		return curveRules[best].class, true
	}
	return Classification{}, false
}

// IsZeroReference reports whether s marks the program origin.
func (c Classifier) IsZeroReference(s model.Shape) bool {
	return s.Kind == model.ShapePoint && s.Color.Near(model.White, c.Tolerance)
}

func colorDist(a, b model.RGB) int {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) + d(a.G, b.G) + d(a.B, b.B)
}
