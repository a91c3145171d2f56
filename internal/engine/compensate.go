package engine

import (
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// compensate offsets the closed curve c by dist toward the side selected by
// comp: -1 gives the inner curve wound clockwise, +1 the outer curve wound
// counter-clockwise. When an offset does not give exactly one closed curve,
// or the chosen curve does not grow or shrink c as asked, a copy of c
// stands in for it and ok is false.
func compensate(k geom.Kernel, c *geom.Curve, comp int, dist, tol float64) (*geom.Curve, bool) {
	if comp == 0 || dist <= 0 {
		return k.Copy(c), true
	}
	if !c.Closed() {
		return k.Copy(c), false
	}

	scaled := k.Scale(c, k.Centroid(c), 1.2)
	box := k.BoundingBox(scaled)
	k.Release(scaled)
	outside := geom.Point{X: box.Min.X, Y: box.Min.Y, Z: c.Start().Z}
	inside := insidePoint(k, c, tol)

	a, okA := single(k, k.Offset(c, outside, dist), c)
	b, okB := single(k, k.Offset(c, inside, dist), c)

	inner, outer, okInner, okOuter := b, a, okB, okA
	if k.Area(a) < k.Area(b) {
		inner, outer, okInner, okOuter = a, b, okA, okB
	}

	out, ok, want := outer, okOuter, 1
	if comp < 0 {
		out, ok, want = inner, okInner, -1
		k.Release(outer)
	} else {
		k.Release(inner)
	}
	if ok && (k.Area(out) > k.Area(c)) != (comp > 0) {
		k.Release(out)
		out, ok = k.Copy(c), false
	}
	if k.Orientation(out) != want {
		k.Reverse(out)
	}
	return out, ok
}

// single returns the only closed curve of res, or a copy of src when res
// holds anything else.
func single(k geom.Kernel, res []*geom.Curve, src *geom.Curve) (*geom.Curve, bool) {
	if len(res) == 1 && res[0].Closed() {
		return res[0], true
	}
	k.Release(res...)
	return k.Copy(src), false
}

// insidePoint returns the centroid of c when it lies inside c, otherwise
// the first point inside c found along its bounding box diagonal.
func insidePoint(k geom.Kernel, c *geom.Curve, tol float64) geom.Point {
	center := k.Centroid(c)
	if k.Contains(c, center) {
		return center
	}
	box := k.BoundingBox(c)
	diag := r2.Sub(box.Max, box.Min)
	l := r2.Norm(diag)
	if l == 0 {
		return center
	}
	step := math.Min(tol, l/64)
	if step <= 0 {
		step = l / 64
	}
	n := int(l / step)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		p := geom.Point{X: box.Min.X + diag.X*t, Y: box.Min.Y + diag.Y*t, Z: center.Z}
		if k.Contains(c, p) {
			return p
		}
	}
	return center
}

func planarDist(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// line returns a straight curve from a to b, or nil when the two points
// coincide.
func line(k geom.Kernel, a, b geom.Point) *geom.Curve {
	if planarDist(a, b) < 1e-9 && math.Abs(a.Z-b.Z) < 1e-9 {
		return nil
	}
	return k.Line(a, b)
}

// shifted returns a copy of c moved by dz along Z.
func shifted(k geom.Kernel, c *geom.Curve, dz float64) *geom.Curve {
	cp := k.Copy(c)
	if dz != 0 {
		k.Translate(cp, geom.Point{Z: dz})
	}
	return cp
}
