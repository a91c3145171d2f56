package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTolerance is the chord error used when curves are flattened for
// area, containment and offset computations.
const DefaultTolerance = 0.01

// Kernel is the curve capability every planning call receives. Curves are
// handles: whatever a Kernel returns is owned by the caller until it is
// passed to Release.
type Kernel interface {
	Line(a, b Point) *Curve
	Polyline(pts []Point) *Curve
	Circle(center Point, radius float64) *Curve
	Arc(center Point, radius, startAngle, sweep float64) *Curve
	FromSegments(segs []Segment) *Curve
	Copy(c *Curve) *Curve
	Join(cs ...*Curve) *Curve
	Release(cs ...*Curve)
	Live() int

	Translate(c *Curve, v Point)
	Reverse(c *Curve)
	SetSeam(c *Curve, at float64)
	Scale(c *Curve, origin Point, f float64) *Curve

	// Offset offsets a closed curve by dist toward the side of side. The
	// result may hold zero, one or several closed curves.
	Offset(c *Curve, side Point, dist float64) []*Curve
	Area(c *Curve) float64
	Centroid(c *Curve) Point
	Contains(c *Curve, p Point) bool
	ClosestPoint(c *Curve, p Point) (Point, float64)
	DivideByLength(c *Curve, step float64) []Point
	DivideByCount(c *Curve, n int) []Point
	Split(c *Curve, at ...float64) []*Curve
	Intersect(a, b *Curve) []float64
	BoundingBox(c *Curve) r2.Box
	Orientation(c *Curve) int
}

// Planar is the in-process Kernel. It keeps a registry of live handles and
// is not safe for concurrent use.
type Planar struct {
	tol  float64
	next uint64
	live map[uint64]struct{}
}

var _ Kernel = (*Planar)(nil)

// NewPlanar returns a kernel flattening curves at tol (DefaultTolerance when
// tol is not positive).
func NewPlanar(tol float64) *Planar {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Planar{tol: tol, live: make(map[uint64]struct{})}
}

// Tolerance returns the flattening tolerance.
func (k *Planar) Tolerance() float64 { return k.tol }

func (k *Planar) register(segs []Segment) *Curve {
	k.next++
	c := &Curve{id: k.next, segs: segs}
	k.live[c.id] = struct{}{}
	return c
}

// Live returns the number of handles that have not been released.
func (k *Planar) Live() int { return len(k.live) }

func (k *Planar) Release(cs ...*Curve) {
	for _, c := range cs {
		if c != nil {
			delete(k.live, c.id)
		}
	}
}

func (k *Planar) Line(a, b Point) *Curve {
	return k.register([]Segment{LineSegment(a, b)})
}

// Polyline joins pts with straight segments, skipping repeated points.
func (k *Planar) Polyline(pts []Point) *Curve {
	var segs []Segment
	for i := 1; i < len(pts); i++ {
		if r3.Norm(r3.Sub(pts[i], pts[i-1])) < eps {
			continue
		}
		segs = append(segs, LineSegment(pts[i-1], pts[i]))
	}
	if len(segs) == 0 && len(pts) > 0 {
		segs = []Segment{LineSegment(pts[0], pts[0])}
	}
	return k.register(segs)
}

func (k *Planar) Circle(center Point, radius float64) *Curve {
	return k.register([]Segment{ArcSegment(center, radius, 0, 2*math.Pi)})
}

func (k *Planar) Arc(center Point, radius, startAngle, sweep float64) *Curve {
	return k.register([]Segment{ArcSegment(center, radius, startAngle, sweep)})
}

func (k *Planar) FromSegments(segs []Segment) *Curve {
	return k.register(append([]Segment(nil), segs...))
}

func (k *Planar) Copy(c *Curve) *Curve {
	return k.register(c.Segments())
}

// Join chains curves end to start into one curve, bridging gaps with
// straight segments.
func (k *Planar) Join(cs ...*Curve) *Curve {
	var segs []Segment
	for _, c := range cs {
		if c == nil || len(c.segs) == 0 {
			continue
		}
		if len(segs) > 0 {
			last := segs[len(segs)-1].End
			if r3.Norm(r3.Sub(c.Start(), last)) > closeTol {
				segs = append(segs, LineSegment(last, c.Start()))
			}
		}
		segs = append(segs, c.segs...)
	}
	return k.register(segs)
}

func (k *Planar) Translate(c *Curve, v Point) {
	for i, s := range c.segs {
		c.segs[i] = s.Translate(v)
	}
}

func (k *Planar) Reverse(c *Curve) {
	n := len(c.segs)
	out := make([]Segment, n)
	for i, s := range c.segs {
		out[n-1-i] = s.Reverse()
	}
	c.segs = out
}

// SetSeam moves the start of a closed curve to arc length at.
func (k *Planar) SetSeam(c *Curve, at float64) {
	if !c.Closed() {
		return
	}
	l := c.Length()
	if at <= closeTol || at >= l-closeTol {
		return
	}
	if len(c.segs) == 1 && c.segs[0].IsCircle() {
		s := c.segs[0]
		c.segs[0] = ArcSegment(s.Center, s.Radius, s.StartAngle()+math.Copysign(at/s.Radius, s.Sweep), s.Sweep)
		return
	}
	c.segs = append(trimSegments(c.segs, at, l), trimSegments(c.segs, 0, at)...)
}

// Scale returns a copy of c scaled by f about origin in the XY plane.
func (k *Planar) Scale(c *Curve, origin Point, f float64) *Curve {
	sc := func(p Point) Point {
		return Point{X: origin.X + f*(p.X-origin.X), Y: origin.Y + f*(p.Y-origin.Y), Z: p.Z}
	}
	segs := make([]Segment, len(c.segs))
	for i, s := range c.segs {
		switch s.Kind {
		case KindArc:
			segs[i] = ArcSegment(sc(s.Center), s.Radius*f, s.StartAngle(), s.Sweep)
		case KindBezier:
			segs[i] = BezierSegment(sc(s.Start), sc(s.Ctrl1), sc(s.Ctrl2), sc(s.End))
		default:
			segs[i] = LineSegment(sc(s.Start), sc(s.End))
		}
	}
	return k.register(segs)
}

func (k *Planar) polygon(c *Curve) []r2.Vec {
	pts := c.Flatten(k.tol)
	out := make([]r2.Vec, len(pts))
	for i, p := range pts {
		out[i] = flat(p)
	}
	return dedupe(out)
}

func (k *Planar) circle(c *Curve) (Segment, bool) {
	if len(c.segs) == 1 && c.segs[0].IsCircle() {
		return c.segs[0], true
	}
	return Segment{}, false
}

func (k *Planar) Offset(c *Curve, side Point, dist float64) []*Curve {
	if !c.Closed() || dist <= 0 {
		return nil
	}
	inward := k.Contains(c, side)

	if s, ok := k.circle(c); ok {
		r := s.Radius + dist
		if inward {
			r = s.Radius - dist
		}
		if r <= k.tol {
			return nil
		}
		return []*Curve{k.register([]Segment{ArcSegment(s.Center, r, s.StartAngle(), s.Sweep)})}
	}

	poly := k.polygon(c)
	ccw := signedArea(poly) > 0
	if !ccw {
		poly = reversed(poly)
	}
	d := dist
	if inward {
		d = -dist
	}

	z := c.Start().Z
	start := flat(c.Start())
	var out []*Curve
	for _, loop := range offsetPolygon(poly, d, k.tol) {
		if !ccw {
			loop = reversed(loop)
		}
		loop = rotateToNearest(loop, start)
		pts := make([]Point, 0, len(loop)+1)
		for _, p := range loop {
			pts = append(pts, Point{X: p.X, Y: p.Y, Z: z})
		}
		pts = append(pts, pts[0])
		out = append(out, k.Polyline(pts))
	}
	return out
}

// Area returns the enclosed area of a closed curve.
func (k *Planar) Area(c *Curve) float64 {
	if s, ok := k.circle(c); ok {
		return math.Pi * s.Radius * s.Radius
	}
	return math.Abs(signedArea(k.polygon(c)))
}

func (k *Planar) Centroid(c *Curve) Point {
	if s, ok := k.circle(c); ok {
		return s.Center
	}
	p := polygonCentroid(k.polygon(c))
	return Point{X: p.X, Y: p.Y, Z: c.Start().Z}
}

// Contains reports whether p lies strictly inside the closed curve c.
func (k *Planar) Contains(c *Curve, p Point) bool {
	if !c.Closed() {
		return false
	}
	if s, ok := k.circle(c); ok {
		return planarDist(p, s.Center) < s.Radius-1e-9
	}
	return pointInPolygon(k.polygon(c), flat(p))
}

// ClosestPoint returns the point of c nearest to p and its arc length.
func (k *Planar) ClosestPoint(c *Curve, p Point) (Point, float64) {
	best := math.Inf(1)
	var bestP Point
	var bestL, acc float64
	for _, s := range c.segs {
		l, q := s.closest(p)
		if d := planarDist(p, q); d < best {
			best, bestP, bestL = d, q, acc+l
		}
		acc += s.Length()
	}
	return bestP, bestL
}

// DivideByLength returns the points of c spaced step apart, starting at its
// start point.
func (k *Planar) DivideByLength(c *Curve, step float64) []Point {
	l := c.Length()
	if step <= 0 || l <= 0 {
		return []Point{c.Start()}
	}
	var pts []Point
	for at := 0.0; at <= l+eps; at += step {
		pts = append(pts, c.PointAt(at))
	}
	return pts
}

// DivideByCount splits c into n equal lengths and returns the n+1 division
// points, end point included.
func (k *Planar) DivideByCount(c *Curve, n int) []Point {
	if n < 1 {
		n = 1
	}
	l := c.Length()
	pts := make([]Point, n+1)
	for i := 0; i < n; i++ {
		pts[i] = c.PointAt(l * float64(i) / float64(n))
	}
	pts[n] = c.End()
	return pts
}

// Split cuts c at the given arc lengths. Closed curves are also cut at their
// seam, so k interior parameters always give k+1 pieces.
func (k *Planar) Split(c *Curve, at ...float64) []*Curve {
	l := c.Length()
	params := append([]float64(nil), at...)
	sort.Float64s(params)
	cuts := []float64{0}
	for _, p := range params {
		if p <= closeTol || p >= l-closeTol || p-cuts[len(cuts)-1] <= closeTol {
			continue
		}
		cuts = append(cuts, p)
	}
	cuts = append(cuts, l)

	out := make([]*Curve, 0, len(cuts)-1)
	for i := 1; i < len(cuts); i++ {
		out = append(out, k.register(trimSegments(c.segs, cuts[i-1], cuts[i])))
	}
	return out
}

// Intersect returns the arc lengths along a at which a crosses or touches b,
// in ascending order.
func (k *Planar) Intersect(a, b *Curve) []float64 {
	pa := k.prims(a)
	pb := k.prims(b)
	var params []float64
	for _, p := range pa {
		for _, q := range pb {
			for _, pt := range primIntersections(p, q) {
				params = append(params, p.offset+p.lengthTo(pt))
			}
		}
	}
	sort.Float64s(params)

	l := a.Length()
	closed := a.Closed()
	var out []float64
	for _, p := range params {
		if closed && p >= l-closeTol {
			p = 0
		}
		if len(out) > 0 && math.Abs(p-out[len(out)-1]) < 1e-6 {
			continue
		}
		if closed && len(out) > 0 && p < closeTol && out[0] < closeTol {
			continue
		}
		out = append(out, p)
	}
	sort.Float64s(out)
	return out
}

func (k *Planar) BoundingBox(c *Curve) r2.Box {
	return bounds(k.polygon(c))
}

// Orientation is +1 for counter-clockwise closed curves, -1 for clockwise
// ones and 0 for open or degenerate curves.
func (k *Planar) Orientation(c *Curve) int {
	if !c.Closed() {
		return 0
	}
	if s, ok := k.circle(c); ok {
		if s.Sweep > 0 {
			return 1
		}
		return -1
	}
	a := signedArea(k.polygon(c))
	switch {
	case a > eps:
		return 1
	case a < -eps:
		return -1
	}
	return 0
}
