package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

// CircularFiller clears a pocket with concentric circles grown from the
// centroid and clipped against the pocket boundary.
type CircularFiller struct {
	Step         float64 // Radial stepover
	ToolDiameter float64
	SecPlane     float64
	Tolerance    float64
}

func (f CircularFiller) Fill(k geom.Kernel, cut *geom.Curve) (*Sweep, error) {
	if f.Step <= 0 {
		return nil, fmt.Errorf("circular pocket: stepover %g: %w", f.Step, ErrGeometryDegenerate)
	}
	boundary, ok := compensate(k, cut, -1, 0.4*f.ToolDiameter, f.Tolerance)
	if !ok {
		k.Release(boundary)
		return nil, fmt.Errorf("circular pocket: boundary offset: %w", ErrGeometryDegenerate)
	}

	center := k.Centroid(boundary)
	center.Z = cut.Start().Z
	nearest, _ := k.ClosestPoint(boundary, center)

	box := k.BoundingBox(boundary)
	var maxR float64
	for _, x := range []float64{box.Min.X, box.Max.X} {
		for _, y := range []float64{box.Min.Y, box.Max.Y} {
			maxR = math.Max(maxR, math.Hypot(x-center.X, y-center.Y))
		}
	}
	maxR += f.Step

	var rings, arcs []*geom.Curve
grow:
	for i := 1; float64(i)*f.Step <= maxR; i++ {
		circ := k.Circle(center, float64(i)*f.Step)
		if i%2 == 0 {
			k.Reverse(circ)
		}
		_, at := k.ClosestPoint(circ, nearest)
		k.SetSeam(circ, at)

		params := k.Intersect(circ, boundary)
		if len(params) == 0 {
			switch {
			case k.Contains(boundary, circ.Start()):
				rings = append(rings, circ)
			case k.Contains(circ, boundary.Start()):
				k.Release(circ)
				break grow
			default:
				k.Release(circ)
			}
			continue
		}
		arcs = append(arcs, interiorArcs(k, circ, boundary, params)...)
		k.Release(circ)
	}

	s := newSweep(k, cut.Start(), f.SecPlane)
	s.cut(line(k, cut.End(), boundary.Start()))
	s.cut(boundary)

	if len(rings) > 0 {
		s.retract()
		for i := len(rings) - 1; i >= 0; i-- {
			if i < len(rings)-1 {
				s.cut(line(k, rings[i+1].End(), rings[i].Start()))
			}
			s.cut(rings[i])
		}
	}
	for _, cl := range clusterArcs(k, arcs, boundary, 4*f.Step) {
		s.retract()
		for _, c := range cl {
			s.cut(c)
		}
	}
	if len(rings)+len(arcs) > 0 {
		s.retract()
	}
	s.cut(line(k, boundary.Start(), cut.End()))
	return s, nil
}

// interiorArcs splits circ at params and keeps the pieces whose midpoint
// lies inside boundary. Pieces meeting at the seam are rejoined.
func interiorArcs(k geom.Kernel, circ, boundary *geom.Curve, params []float64) []*geom.Curve {
	pieces := k.Split(circ, params...)
	n := len(pieces)
	keep := make([]bool, n)
	var out []*geom.Curve
	for i, pc := range pieces {
		keep[i] = k.Contains(boundary, pc.PointAt(pc.Length()/2))
		if !keep[i] {
			k.Release(pc)
			continue
		}
		out = append(out, pc)
	}
	if n > 1 && keep[0] && keep[n-1] {
		first, last := out[0], out[len(out)-1]
		joined := k.Join(last, first)
		k.Release(first, last)
		out = append([]*geom.Curve{joined}, out[1:len(out)-1]...)
	}
	return out
}

// clusterArcs chains arcs greedily by nearest start point. A bridge joins
// two arcs only when it is shorter than maxBridge and stays inside
// boundary; otherwise a new cluster starts.
func clusterArcs(k geom.Kernel, arcs []*geom.Curve, boundary *geom.Curve, maxBridge float64) [][]*geom.Curve {
	used := make([]bool, len(arcs))
	var out [][]*geom.Curve
	for first := range arcs {
		if used[first] {
			continue
		}
		used[first] = true
		cl := []*geom.Curve{arcs[first]}
		end := arcs[first].End()
		for {
			next, best := -1, math.Inf(1)
			for j, a := range arcs {
				if used[j] {
					continue
				}
				if d := planarDist(end, a.Start()); d < best {
					next, best = j, d
				}
			}
			if next < 0 || best >= maxBridge {
				break
			}
			bridge := line(k, end, arcs[next].Start())
			if bridge != nil {
				if leavesBoundary(k, bridge, boundary) {
					k.Release(bridge)
					break
				}
				cl = append(cl, bridge)
			}
			used[next] = true
			cl = append(cl, arcs[next])
			end = arcs[next].End()
		}
		out = append(out, cl)
	}
	return out
}

// leavesBoundary reports whether a bridge crosses boundary away from its
// end points or runs outside it.
func leavesBoundary(k geom.Kernel, bridge, boundary *geom.Curve) bool {
	l := bridge.Length()
	for _, t := range k.Intersect(bridge, boundary) {
		if t > 1e-6 && t < l-1e-6 {
			return true
		}
	}
	return !k.Contains(boundary, bridge.PointAt(l/2))
}
