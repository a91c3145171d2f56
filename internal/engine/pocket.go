package engine

import (
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
)

// PocketFiller builds the clearing geometry for the inside of a compensated
// cut curve.
type PocketFiller interface {
	Fill(k geom.Kernel, cut *geom.Curve) (*Sweep, error)
}

type sweepItem struct {
	curve   *geom.Curve
	retract bool
}

// Sweep is pocket geometry built at the height of the cut curve it clears.
// Items are cut in order; a retract item lifts the tool to the retract
// plane and drops it onto the start of the next item. The sweep owns its
// curves until Release.
type Sweep struct {
	k        geom.Kernel
	items    []sweepItem
	home     geom.Point
	secPlane float64
}

func newSweep(k geom.Kernel, home geom.Point, secPlane float64) *Sweep {
	return &Sweep{k: k, home: home, secPlane: secPlane}
}

func (s *Sweep) cut(c *geom.Curve) {
	if c != nil {
		s.items = append(s.items, sweepItem{curve: c})
	}
}

func (s *Sweep) retract() {
	if n := len(s.items); n == 0 || s.items[n-1].retract {
		return
	}
	s.items = append(s.items, sweepItem{retract: true})
}

// Curves returns the number of cut curves in the sweep.
func (s *Sweep) Curves() int {
	n := 0
	for _, it := range s.items {
		if !it.retract {
			n++
		}
	}
	return n
}

// Level returns the sweep moved down by dz as motion segments. A trailing
// retract returns the tool to the start of the cut curve.
func (s *Sweep) Level(dz float64) []model.MotionSegment {
	var out []model.MotionSegment
	last := s.home
	last.Z += dz
	for i, it := range s.items {
		if !it.retract {
			c := shifted(s.k, it.curve, dz)
			out = append(out, model.MotionSegment{Class: model.MotionCut, Curve: c})
			last = c.End()
			continue
		}
		to := s.home
		if i+1 < len(s.items) {
			to = s.items[i+1].curve.Start()
		}
		to.Z += dz
		out = append(out, s.jump(last, to)...)
		last = to
	}
	return out
}

// jump lifts from a to the retract plane, crosses over and plunges onto b.
func (s *Sweep) jump(a, b geom.Point) []model.MotionSegment {
	up := geom.Point{X: a.X, Y: a.Y, Z: s.secPlane}
	over := geom.Point{X: b.X, Y: b.Y, Z: s.secPlane}
	var out []model.MotionSegment
	for _, m := range []struct {
		class    model.MotionClass
		from, to geom.Point
	}{
		{model.MotionRapid, a, up},
		{model.MotionRapid, up, over},
		{model.MotionPlunge, over, b},
	} {
		if c := line(s.k, m.from, m.to); c != nil {
			out = append(out, model.MotionSegment{Class: m.class, Curve: c})
		}
	}
	return out
}

// Release hands the sweep's curves back to the kernel.
func (s *Sweep) Release() {
	for _, it := range s.items {
		if it.curve != nil {
			s.k.Release(it.curve)
		}
	}
	s.items = nil
}
