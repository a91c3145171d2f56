package engine

import (
	"fmt"
	"log"
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

// OffsetFiller clears a pocket with nested inward offsets of the cut curve.
type OffsetFiller struct {
	Step      float64 // Inward distance between nested curves
	SecPlane  float64
	Tolerance float64
	MaxDepth  int // Nesting limit, 0 derives one from the curve size
	Logger    *log.Logger
}

type pocketFrame struct {
	curve *geom.Curve
	depth int
}

// Fill walks the offset tree depth first. A branch ends with a retract
// when an offset yields anything other than exactly one smaller curve.
// The first offset of cut must succeed, otherwise nothing is built.
func (f OffsetFiller) Fill(k geom.Kernel, cut *geom.Curve) (*Sweep, error) {
	if f.Step <= 0 {
		return nil, fmt.Errorf("offset pocket: stepover %g: %w", f.Step, ErrGeometryDegenerate)
	}
	first := f.inset(k, cut)
	if len(first) != 1 {
		k.Release(first...)
		return nil, fmt.Errorf("offset pocket: first offset gave %d curves: %w", len(first), ErrGeometryDegenerate)
	}

	maxDepth := f.MaxDepth
	if maxDepth <= 0 {
		box := k.BoundingBox(cut)
		size := math.Max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y)
		maxDepth = int(math.Ceil(size/f.Step)) + 1
	}

	s := newSweep(k, cut.Start(), f.SecPlane)
	last, joined := cut.End(), true
	stack := []pocketFrame{{curve: first[0], depth: 1}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if joined {
			s.cut(line(k, last, fr.curve.Start()))
		}
		s.cut(fr.curve)
		last, joined = fr.curve.End(), true

		if fr.depth >= maxDepth {
			if f.Logger != nil {
				f.Logger.Printf("offset pocket: nesting limit %d reached: %v", maxDepth, ErrGeometryDegenerate)
			}
			s.retract()
			joined = false
			continue
		}

		kids := f.inset(k, fr.curve)
		if len(kids) != 1 {
			s.retract()
			joined = false
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, pocketFrame{curve: kids[i], depth: fr.depth + 1})
		}
	}
	s.retract()
	return s, nil
}

// inset offsets c inward by one step and keeps the closed results that are
// strictly smaller than c and start somewhere new.
func (f OffsetFiller) inset(k geom.Kernel, c *geom.Curve) []*geom.Curve {
	res := k.Offset(c, insidePoint(k, c, f.Tolerance), f.Step)
	area := k.Area(c)
	seen := []geom.Point{c.Start()}
	var out []*geom.Curve
	for _, r := range res {
		if !r.Closed() || k.Area(r) >= area || startsAt(seen, r.Start()) {
			k.Release(r)
			continue
		}
		seen = append(seen, r.Start())
		out = append(out, r)
	}
	return out
}

func startsAt(pts []geom.Point, p geom.Point) bool {
	for _, q := range pts {
		if planarDist(p, q) < 1e-6 {
			return true
		}
	}
	return false
}
