// Package geom is the planar curve kernel behind the toolpath planner.
//
// A Curve is a chain of line, arc and cubic Bézier segments living at a
// constant Z, except for line segments which may ramp. Curves are created,
// modified and released only through a Kernel so that every handle can be
// accounted for after a job.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a position in machine coordinates (mm).
type Point = r3.Vec

// Kind identifies the primitive described by a Segment.
type Kind int

const (
	KindLine Kind = iota
	KindArc
	KindBezier
)

func (k Kind) String() string {
	switch k {
	case KindArc:
		return "arc"
	case KindBezier:
		return "bezier"
	default:
		return "line"
	}
}

const (
	eps         = 1e-9
	closeTol    = 1e-6
	bezierSteps = 64
	maxArcSteps = 4096
)

// Segment is one primitive of a Curve. Arcs lie in the XY plane at the Z of
// their center; Sweep is signed, positive counter-clockwise.
type Segment struct {
	Kind   Kind
	Start  Point
	End    Point
	Center Point
	Radius float64
	Sweep  float64
	Ctrl1  Point
	Ctrl2  Point
}

// LineSegment returns the straight segment a→b.
func LineSegment(a, b Point) Segment {
	return Segment{Kind: KindLine, Start: a, End: b}
}

// ArcSegment returns the arc of the given radius around center starting at
// startAngle (radians) and sweeping by sweep.
func ArcSegment(center Point, radius, startAngle, sweep float64) Segment {
	s := Segment{Kind: KindArc, Center: center, Radius: radius, Sweep: sweep}
	s.Start = polar(center, radius, startAngle)
	if isFullTurn(sweep) {
		s.End = s.Start
	} else {
		s.End = polar(center, radius, startAngle+sweep)
	}
	return s
}

// BezierSegment returns the cubic Bézier p0,c1,c2,p1.
func BezierSegment(p0, c1, c2, p1 Point) Segment {
	return Segment{Kind: KindBezier, Start: p0, Ctrl1: c1, Ctrl2: c2, End: p1}
}

// IsCircle reports whether s is a full circle.
func (s Segment) IsCircle() bool {
	return s.Kind == KindArc && isFullTurn(s.Sweep)
}

// StartAngle is the polar angle of an arc's start point about its center.
func (s Segment) StartAngle() float64 {
	return math.Atan2(s.Start.Y-s.Center.Y, s.Start.X-s.Center.X)
}

// Length returns the arc length of s.
func (s Segment) Length() float64 {
	switch s.Kind {
	case KindArc:
		return s.Radius * math.Abs(s.Sweep)
	case KindBezier:
		return polylineLength(s.bezierPolyline(bezierSteps))
	default:
		return r3.Norm(r3.Sub(s.End, s.Start))
	}
}

// PointAt returns the point at arc length l from the start of s.
func (s Segment) PointAt(l float64) Point {
	length := s.Length()
	l = math.Max(0, math.Min(l, length))
	switch s.Kind {
	case KindArc:
		if s.Radius < eps {
			return s.Start
		}
		return polar(s.Center, s.Radius, s.StartAngle()+math.Copysign(l/s.Radius, s.Sweep))
	case KindBezier:
		return s.bezierAt(s.bezierParam(l))
	default:
		if length < eps {
			return s.Start
		}
		return r3.Add(s.Start, r3.Scale(l/length, r3.Sub(s.End, s.Start)))
	}
}

// Reverse returns s traversed from end to start.
func (s Segment) Reverse() Segment {
	r := s
	r.Start, r.End = s.End, s.Start
	switch s.Kind {
	case KindArc:
		r.Sweep = -s.Sweep
	case KindBezier:
		r.Ctrl1, r.Ctrl2 = s.Ctrl2, s.Ctrl1
	}
	return r
}

// Translate returns s moved by v.
func (s Segment) Translate(v Point) Segment {
	s.Start = r3.Add(s.Start, v)
	s.End = r3.Add(s.End, v)
	s.Center = r3.Add(s.Center, v)
	s.Ctrl1 = r3.Add(s.Ctrl1, v)
	s.Ctrl2 = r3.Add(s.Ctrl2, v)
	return s
}

// Trim returns the part of s between arc lengths a and b.
func (s Segment) Trim(a, b float64) Segment {
	switch s.Kind {
	case KindArc:
		dir := math.Copysign(1, s.Sweep)
		return ArcSegment(s.Center, s.Radius, s.StartAngle()+dir*a/s.Radius, dir*(b-a)/s.Radius)
	case KindBezier:
		return s.bezierSub(s.bezierParam(a), s.bezierParam(b))
	default:
		return LineSegment(s.PointAt(a), s.PointAt(b))
	}
}

// Flatten returns points along s spaced so that the chord error stays below
// tol. The start point is omitted and the end point is always last.
func (s Segment) Flatten(tol float64) []Point {
	switch s.Kind {
	case KindArc:
		n := arcSteps(s.Radius, s.Sweep, tol)
		a0 := s.StartAngle()
		pts := make([]Point, 0, n)
		for i := 1; i < n; i++ {
			pts = append(pts, polar(s.Center, s.Radius, a0+s.Sweep*float64(i)/float64(n)))
		}
		return append(pts, s.End)
	case KindBezier:
		return s.bezierPolyline(bezierSteps)[1:]
	default:
		return []Point{s.End}
	}
}

// closest returns the arc length along s of the point nearest to p in the
// XY plane, together with that point.
func (s Segment) closest(p Point) (float64, Point) {
	switch s.Kind {
	case KindArc:
		a := math.Atan2(p.Y-s.Center.Y, p.X-s.Center.X)
		if d, ok := s.angleOffset(a); ok {
			return d * s.Radius, polar(s.Center, s.Radius, s.StartAngle()+math.Copysign(d, s.Sweep))
		}
		if planarDist(p, s.Start) <= planarDist(p, s.End) {
			return 0, s.Start
		}
		return s.Length(), s.End
	case KindBezier:
		pts := s.bezierPolyline(bezierSteps)
		best, bestL, acc := math.Inf(1), 0.0, 0.0
		var bestP Point
		for i := 1; i < len(pts); i++ {
			l, q := LineSegment(pts[i-1], pts[i]).closest(p)
			if d := planarDist(p, q); d < best {
				best, bestL, bestP = d, acc+l, q
			}
			acc += r3.Norm(r3.Sub(pts[i], pts[i-1]))
		}
		return bestL, bestP
	default:
		d := r3.Sub(s.End, s.Start)
		dd := d.X*d.X + d.Y*d.Y
		if dd < eps {
			return 0, s.Start
		}
		t := ((p.X-s.Start.X)*d.X + (p.Y-s.Start.Y)*d.Y) / dd
		t = math.Max(0, math.Min(1, t))
		q := r3.Add(s.Start, r3.Scale(t, d))
		return t * r3.Norm(d), q
	}
}

// angleOffset maps a polar angle onto the angular distance travelled from
// the arc start, reporting false when the angle is outside the sweep.
func (s Segment) angleOffset(a float64) (float64, bool) {
	d := a - s.StartAngle()
	if s.Sweep < 0 {
		d = -d
	}
	d = math.Mod(d, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	sweep := math.Abs(s.Sweep)
	switch {
	case d <= sweep+1e-9:
		return math.Min(d, sweep), true
	case 2*math.Pi-d < 1e-9:
		return 0, true
	}
	return 0, false
}

func (s Segment) bezierAt(u float64) Point {
	v := 1 - u
	p := r3.Scale(v*v*v, s.Start)
	p = r3.Add(p, r3.Scale(3*v*v*u, s.Ctrl1))
	p = r3.Add(p, r3.Scale(3*v*u*u, s.Ctrl2))
	return r3.Add(p, r3.Scale(u*u*u, s.End))
}

func (s Segment) bezierPolyline(n int) []Point {
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = s.bezierAt(float64(i) / float64(n))
	}
	pts[n] = s.End
	return pts
}

// bezierParam maps an arc length along s to the Bézier parameter.
func (s Segment) bezierParam(l float64) float64 {
	pts := s.bezierPolyline(bezierSteps)
	acc := 0.0
	for i := 1; i < len(pts); i++ {
		d := r3.Norm(r3.Sub(pts[i], pts[i-1]))
		if acc+d >= l {
			f := 0.0
			if d > eps {
				f = (l - acc) / d
			}
			return (float64(i-1) + f) / bezierSteps
		}
		acc += d
	}
	return 1
}

func (s Segment) bezierSub(u0, u1 float64) Segment {
	_, right := splitBezier([4]Point{s.Start, s.Ctrl1, s.Ctrl2, s.End}, u0)
	if u0 >= 1-eps {
		return BezierSegment(s.End, s.End, s.End, s.End)
	}
	left, _ := splitBezier(right, (u1-u0)/(1-u0))
	return BezierSegment(left[0], left[1], left[2], left[3])
}

func splitBezier(p [4]Point, u float64) (left, right [4]Point) {
	lerp := func(a, b Point) Point { return r3.Add(a, r3.Scale(u, r3.Sub(b, a))) }
	p01, p12, p23 := lerp(p[0], p[1]), lerp(p[1], p[2]), lerp(p[2], p[3])
	p012, p123 := lerp(p01, p12), lerp(p12, p23)
	m := lerp(p012, p123)
	return [4]Point{p[0], p01, p012, m}, [4]Point{m, p123, p23, p[3]}
}

// Curve is a kernel-owned chain of segments.
type Curve struct {
	id   uint64
	segs []Segment
}

// ID is the handle under which the kernel tracks c.
func (c *Curve) ID() uint64 { return c.id }

// Segments explodes c into its primitives.
func (c *Curve) Segments() []Segment {
	return append([]Segment(nil), c.segs...)
}

func (c *Curve) Start() Point {
	if len(c.segs) == 0 {
		return Point{}
	}
	return c.segs[0].Start
}

func (c *Curve) End() Point {
	if len(c.segs) == 0 {
		return Point{}
	}
	return c.segs[len(c.segs)-1].End
}

func (c *Curve) Length() float64 {
	var l float64
	for _, s := range c.segs {
		l += s.Length()
	}
	return l
}

// Domain returns the arc-length parameter range of c.
func (c *Curve) Domain() (float64, float64) { return 0, c.Length() }

// Closed reports whether the curve ends where it starts.
func (c *Curve) Closed() bool {
	if len(c.segs) == 0 {
		return false
	}
	return r3.Norm(r3.Sub(c.End(), c.Start())) <= closeTol && c.Length() > closeTol
}

// PointAt returns the point at arc length l along c.
func (c *Curve) PointAt(l float64) Point {
	acc := 0.0
	for i, s := range c.segs {
		sl := s.Length()
		if l <= acc+sl || i == len(c.segs)-1 {
			return s.PointAt(l - acc)
		}
		acc += sl
	}
	return c.Start()
}

// Flatten returns c as a polyline whose chord error stays below tol.
func (c *Curve) Flatten(tol float64) []Point {
	if len(c.segs) == 0 {
		return nil
	}
	pts := []Point{c.segs[0].Start}
	for _, s := range c.segs {
		pts = append(pts, s.Flatten(tol)...)
	}
	return pts
}

// trimSegments returns the segments of segs lying between arc lengths a and b.
func trimSegments(segs []Segment, a, b float64) []Segment {
	var out []Segment
	acc := 0.0
	for _, s := range segs {
		l := s.Length()
		s0, s1 := acc, acc+l
		acc = s1
		if l < eps || s1 <= a+eps || s0 >= b-eps {
			continue
		}
		lo := math.Max(a, s0) - s0
		hi := math.Min(b, s1) - s0
		if lo <= eps && hi >= l-eps {
			out = append(out, s)
			continue
		}
		out = append(out, s.Trim(lo, hi))
	}
	return out
}

func polar(c Point, r, a float64) Point {
	return Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a), Z: c.Z}
}

func isFullTurn(sweep float64) bool {
	return math.Abs(math.Abs(sweep)-2*math.Pi) < 1e-9
}

func arcSteps(r, sweep, tol float64) int {
	least := 1
	if isFullTurn(sweep) {
		least = 8
	}
	if r <= tol || tol <= 0 {
		return least
	}
	step := 2 * math.Acos(1-tol/r)
	n := int(math.Ceil(math.Abs(sweep) / step))
	if n < least {
		n = least
	}
	if n > maxArcSteps {
		n = maxArcSteps
	}
	return n
}

func polylineLength(pts []Point) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += r3.Norm(r3.Sub(pts[i], pts[i-1]))
	}
	return l
}

func planarDist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func flat(p Point) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
