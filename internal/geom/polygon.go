package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// signedArea computes the shoelace area of a closed polygon; positive when
// the vertices run counter-clockwise.
func signedArea(pts []r2.Vec) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		area += r2.Cross(pts[i], pts[(i+1)%n])
	}
	return area / 2
}

// polygonCentroid returns the area centroid of pts, falling back to the
// vertex average for degenerate polygons.
func polygonCentroid(pts []r2.Vec) r2.Vec {
	n := len(pts)
	a := signedArea(pts)
	if math.Abs(a) < eps {
		var sum r2.Vec
		for _, p := range pts {
			sum = r2.Add(sum, p)
		}
		if n == 0 {
			return sum
		}
		return r2.Scale(1/float64(n), sum)
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		f := r2.Cross(p, q)
		cx += (p.X + q.X) * f
		cy += (p.Y + q.Y) * f
	}
	return r2.Vec{X: cx / (6 * a), Y: cy / (6 * a)}
}

// pointInPolygon is an even-odd ray cast. Points on the boundary count as
// outside.
func pointInPolygon(pts []r2.Vec, p r2.Vec) bool {
	n := len(pts)
	if n < 3 || distToPolygon(pts, p) < 1e-9 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// windingNumber counts how many times the closed polygon pts winds
// counter-clockwise around p.
func windingNumber(pts []r2.Vec, p r2.Vec) int {
	w := 0
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		side := r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
		if a.Y <= p.Y {
			if b.Y > p.Y && side > 0 {
				w++
			}
		} else if b.Y <= p.Y && side < 0 {
			w--
		}
	}
	return w
}

func distToSegment(p, a, b r2.Vec) float64 {
	d := r2.Sub(b, a)
	dd := r2.Dot(d, d)
	if dd < eps {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), d) / dd
	t = math.Max(0, math.Min(1, t))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, d))))
}

func distToPolygon(pts []r2.Vec, p r2.Vec) float64 {
	best := math.Inf(1)
	n := len(pts)
	for i := 0; i < n; i++ {
		if d := distToSegment(p, pts[i], pts[(i+1)%n]); d < best {
			best = d
		}
	}
	return best
}

// segmentIntersection intersects a0→a1 with b0→b1, returning the parameters
// along both. Parallel segments never intersect.
func segmentIntersection(a0, a1, b0, b1 r2.Vec) (t, u float64, ok bool) {
	r := r2.Sub(a1, a0)
	s := r2.Sub(b1, b0)
	den := r2.Cross(r, s)
	if math.Abs(den) < 1e-12 {
		return 0, 0, false
	}
	q := r2.Sub(b0, a0)
	t = r2.Cross(q, s) / den
	u = r2.Cross(q, r) / den
	return t, u, true
}

func reversed(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// dedupe drops consecutive duplicates and a trailing copy of the first
// vertex.
func dedupe(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && r2.Norm(r2.Sub(p, out[len(out)-1])) < 1e-9 {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && r2.Norm(r2.Sub(out[0], out[len(out)-1])) < 1e-9 {
		out = out[:len(out)-1]
	}
	return out
}

// simplify removes vertices that are collinear with their neighbours.
func simplify(pts []r2.Vec) []r2.Vec {
	if len(pts) < 4 {
		return pts
	}
	out := make([]r2.Vec, 0, len(pts))
	n := len(pts)
	for i := 0; i < n; i++ {
		prev, cur, next := pts[(i-1+n)%n], pts[i], pts[(i+1)%n]
		e0, e1 := r2.Sub(cur, prev), r2.Sub(next, cur)
		if math.Abs(r2.Cross(e0, e1)) < 1e-12 && r2.Dot(e0, e1) > 0 {
			continue
		}
		out = append(out, cur)
	}
	return out
}

func bounds(pts []r2.Vec) r2.Box {
	if len(pts) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}
