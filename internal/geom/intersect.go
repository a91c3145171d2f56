package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// prim is a line or arc piece of a curve used for intersection tests.
// Bézier segments are flattened into lines first.
type prim struct {
	seg    Segment
	offset float64
}

func (k *Planar) prims(c *Curve) []prim {
	var out []prim
	acc := 0.0
	for _, s := range c.segs {
		if s.Kind == KindBezier {
			pts := append([]Point{s.Start}, s.Flatten(k.tol)...)
			for i := 1; i < len(pts); i++ {
				ls := LineSegment(pts[i-1], pts[i])
				out = append(out, prim{seg: ls, offset: acc})
				acc += ls.Length()
			}
			continue
		}
		out = append(out, prim{seg: s, offset: acc})
		acc += s.Length()
	}
	return out
}

// lengthTo returns the arc length from the start of the primitive to pt,
// which is assumed to lie on it.
func (p prim) lengthTo(pt r2.Vec) float64 {
	if p.seg.Kind == KindArc {
		d, _ := p.seg.angleOffset(math.Atan2(pt.Y-p.seg.Center.Y, pt.X-p.seg.Center.X))
		return d * p.seg.Radius
	}
	return r2.Norm(r2.Sub(pt, flat(p.seg.Start)))
}

func (p prim) onArc(pt r2.Vec) bool {
	_, ok := p.seg.angleOffset(math.Atan2(pt.Y-p.seg.Center.Y, pt.X-p.seg.Center.X))
	return ok
}

func primIntersections(p, q prim) []r2.Vec {
	switch {
	case p.seg.Kind != KindArc && q.seg.Kind != KindArc:
		a0, a1 := flat(p.seg.Start), flat(p.seg.End)
		b0, b1 := flat(q.seg.Start), flat(q.seg.End)
		t, u, ok := segmentIntersection(a0, a1, b0, b1)
		if !ok || t < -1e-9 || t > 1+1e-9 || u < -1e-9 || u > 1+1e-9 {
			return nil
		}
		return []r2.Vec{r2.Add(a0, r2.Scale(t, r2.Sub(a1, a0)))}
	case p.seg.Kind == KindArc && q.seg.Kind == KindArc:
		var out []r2.Vec
		for _, pt := range circleCircle(flat(p.seg.Center), p.seg.Radius, flat(q.seg.Center), q.seg.Radius) {
			if p.onArc(pt) && q.onArc(pt) {
				out = append(out, pt)
			}
		}
		return out
	case p.seg.Kind == KindArc:
		return lineArc(q, p)
	default:
		return lineArc(p, q)
	}
}

func lineArc(line, arc prim) []r2.Vec {
	a, b := flat(line.seg.Start), flat(line.seg.End)
	c := flat(arc.seg.Center)
	d := r2.Sub(b, a)
	f := r2.Sub(a, c)
	A := r2.Dot(d, d)
	if A < eps {
		return nil
	}
	B := 2 * r2.Dot(f, d)
	C := r2.Dot(f, f) - arc.seg.Radius*arc.seg.Radius
	disc := B*B - 4*A*C
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	ts := []float64{(-B - sq) / (2 * A)}
	if sq > 1e-12 {
		ts = append(ts, (-B+sq)/(2*A))
	}
	var out []r2.Vec
	for _, t := range ts {
		if t < -1e-9 || t > 1+1e-9 {
			continue
		}
		pt := r2.Add(a, r2.Scale(t, d))
		if arc.onArc(pt) {
			out = append(out, pt)
		}
	}
	return out
}

func circleCircle(c0 r2.Vec, r0 float64, c1 r2.Vec, r1 float64) []r2.Vec {
	v := r2.Sub(c1, c0)
	d := r2.Norm(v)
	if d < eps || d > r0+r1+1e-9 || d < math.Abs(r0-r1)-1e-9 {
		return nil
	}
	a := (r0*r0 - r1*r1 + d*d) / (2 * d)
	h2 := r0*r0 - a*a
	mid := r2.Add(c0, r2.Scale(a/d, v))
	if h2 <= 1e-12 {
		return []r2.Vec{mid}
	}
	h := math.Sqrt(h2)
	perp := r2.Scale(h/d, r2.Vec{X: -v.Y, Y: v.X})
	return []r2.Vec{r2.Add(mid, perp), r2.Sub(mid, perp)}
}
