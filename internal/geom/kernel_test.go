package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func square(k *Planar, cx, cy, side float64) *Curve {
	h := side / 2
	return k.Polyline([]Point{
		{X: cx - h, Y: cy - h}, {X: cx + h, Y: cy - h},
		{X: cx + h, Y: cy + h}, {X: cx - h, Y: cy + h},
		{X: cx - h, Y: cy - h},
	})
}

// deviation returns the smallest and largest distance between the
// flattened points of c and the polygon of ref.
func deviation(k *Planar, c, ref *Curve) (lo, hi float64) {
	poly := k.polygon(ref)
	lo = math.Inf(1)
	for _, p := range c.Flatten(k.tol) {
		d := distToPolygon(poly, flat(p))
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

func TestOffsetSquareOutward(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 40)

	out := k.Offset(sq, Point{X: 100, Y: 100}, 3)
	require.Len(t, out, 1)
	assert.True(t, out[0].Closed())
	assert.InDelta(t, 46*46-(4-math.Pi)*9, k.Area(out[0]), 0.5)

	lo, hi := deviation(k, out[0], sq)
	assert.InDelta(t, 3, lo, 0.02)
	assert.InDelta(t, 3, hi, 0.02)
}

func TestOffsetSquareInward(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 40)

	out := k.Offset(sq, Point{}, 3)
	require.Len(t, out, 1)
	assert.InDelta(t, 34*34, k.Area(out[0]), 1e-6)
	assert.Equal(t, k.Orientation(sq), k.Orientation(out[0]))

	lo, _ := deviation(k, out[0], sq)
	assert.InDelta(t, 3, lo, 1e-6)
}

func TestOffsetKeepsClockwiseWinding(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 20)
	k.Reverse(sq)
	require.Equal(t, -1, k.Orientation(sq))

	out := k.Offset(sq, Point{}, 2)
	require.Len(t, out, 1)
	assert.Equal(t, -1, k.Orientation(out[0]))
}

func TestOffsetCollapses(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 40)
	assert.Empty(t, k.Offset(sq, Point{}, 25))

	c := k.Circle(Point{}, 2)
	assert.Empty(t, k.Offset(c, Point{}, 3))
}

func TestOffsetSplitsNarrowNeck(t *testing.T) {
	k := NewPlanar(0)
	dumbbell := k.Polyline([]Point{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 9}, {X: 30, Y: 9}, {X: 30, Y: 0},
		{X: 50, Y: 0}, {X: 50, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 11}, {X: 20, Y: 11},
		{X: 20, Y: 20}, {X: 0, Y: 20}, {X: 0, Y: 0},
	})

	out := k.Offset(dumbbell, Point{X: 10, Y: 10}, 3)
	require.Len(t, out, 2)
	for _, c := range out {
		assert.True(t, c.Closed())
		assert.InDelta(t, 14*14, k.Area(c), 0.5)
	}
}

// filletedL is an L with 20 wide arms whose inside corner is rounded with
// radius r. It runs counter-clockwise from the origin.
func filletedL(k *Planar, r float64) *Curve {
	return k.FromSegments([]Segment{
		LineSegment(Point{}, Point{X: 60}),
		LineSegment(Point{X: 60}, Point{X: 60, Y: 20}),
		LineSegment(Point{X: 60, Y: 20}, Point{X: 20 + r, Y: 20}),
		ArcSegment(Point{X: 20 + r, Y: 20 + r}, r, -math.Pi/2, -math.Pi/2),
		LineSegment(Point{X: 20, Y: 20 + r}, Point{X: 20, Y: 60}),
		LineSegment(Point{X: 20, Y: 60}, Point{Y: 60}),
		LineSegment(Point{Y: 60}, Point{}),
	})
}

func TestOffsetFilletedConcaveCorner(t *testing.T) {
	for _, tol := range []float64{0.01, 0.05, 0.5} {
		for _, r := range []float64{1, 3, 5, 10} {
			k := NewPlanar(tol)
			src := filletedL(k, r)
			require.True(t, src.Closed())
			area := k.Area(src)

			out := k.Offset(src, Point{X: -50, Y: -50}, 3)
			require.Len(t, out, 1, "outward tol=%g r=%g", tol, r)
			assert.Greater(t, k.Area(out[0]), area, "outward tol=%g r=%g", tol, r)
			lo, hi := deviation(k, out[0], src)
			assert.InDelta(t, 3, lo, tol+1e-6, "outward tol=%g r=%g", tol, r)
			assert.InDelta(t, 3, hi, tol+1e-6, "outward tol=%g r=%g", tol, r)
			assert.True(t, k.Contains(out[0], Point{X: 10, Y: 10}))

			in := k.Offset(src, Point{X: 10, Y: 10}, 3)
			require.Len(t, in, 1, "inward tol=%g r=%g", tol, r)
			assert.Less(t, k.Area(in[0]), area, "inward tol=%g r=%g", tol, r)
			lo, hi = deviation(k, in[0], src)
			assert.InDelta(t, 3, lo, tol+1e-6, "inward tol=%g r=%g", tol, r)
			assert.InDelta(t, 3, hi, tol+1e-6, "inward tol=%g r=%g", tol, r)
		}
	}
}

func TestOffsetOfOffset(t *testing.T) {
	k := NewPlanar(0.05)
	src := filletedL(k, 3)

	first := k.Offset(src, Point{X: -50, Y: -50}, 3)
	require.Len(t, first, 1)
	second := k.Offset(first[0], Point{X: -50, Y: -50}, 3)
	require.Len(t, second, 1)
	assert.Greater(t, k.Area(second[0]), k.Area(first[0]))

	lo, hi := deviation(k, second[0], src)
	assert.InDelta(t, 6, lo, 2*0.05+1e-6)
	assert.InDelta(t, 6, hi, 2*0.05+1e-6)

	back := k.Offset(second[0], Point{X: 10, Y: 10}, 3)
	require.Len(t, back, 1)
	assert.Less(t, k.Area(back[0]), k.Area(second[0]))
}

func TestWindingNumber(t *testing.T) {
	ccw := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.Equal(t, 1, windingNumber(ccw, r2.Vec{X: 5, Y: 5}))
	assert.Equal(t, 0, windingNumber(ccw, r2.Vec{X: 15, Y: 5}))
	assert.Equal(t, -1, windingNumber(reversed(ccw), r2.Vec{X: 5, Y: 5}))

	// The same square traced twice winds twice.
	twice := append(append([]r2.Vec(nil), ccw...), ccw...)
	assert.Equal(t, 2, windingNumber(twice, r2.Vec{X: 5, Y: 5}))
}

func TestStitchSeparatesTouchingLoops(t *testing.T) {
	// Two squares touching at node 0, (10,10); node 1 is (0,0).
	pieces := []piece{
		{from: 1, to: 0, pts: []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}},
		{from: 0, to: 1, pts: []r2.Vec{{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}},
		{from: 0, to: 0, pts: []r2.Vec{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}, {X: 10, Y: 10}}},
	}
	loops := stitch(pieces)
	require.Len(t, loops, 2)
	for _, l := range loops {
		assert.InDelta(t, 100, signedArea(l), 1e-9)
	}
}

func TestOffsetCircleIsExact(t *testing.T) {
	k := NewPlanar(0)
	c := k.Circle(Point{X: 5, Y: 5}, 10)

	outer := k.Offset(c, Point{X: 100}, 2)
	require.Len(t, outer, 1)
	segs := outer[0].Segments()
	require.Len(t, segs, 1)
	assert.True(t, segs[0].IsCircle())
	assert.InDelta(t, 12, segs[0].Radius, 1e-12)

	inner := k.Offset(c, Point{X: 5, Y: 5}, 2)
	require.Len(t, inner, 1)
	assert.InDelta(t, 8, inner[0].Segments()[0].Radius, 1e-12)
}

func TestAreaCentroidContains(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 10, -5, 4)

	assert.InDelta(t, 16, k.Area(sq), 1e-9)
	c := k.Centroid(sq)
	assert.InDelta(t, 10, c.X, 1e-9)
	assert.InDelta(t, -5, c.Y, 1e-9)

	assert.True(t, k.Contains(sq, Point{X: 10, Y: -5}))
	assert.False(t, k.Contains(sq, Point{X: 12, Y: -5}), "boundary is not inside")
	assert.False(t, k.Contains(sq, Point{X: 20}))

	open := k.Line(Point{}, Point{X: 1})
	assert.False(t, k.Contains(open, Point{}))
	assert.Equal(t, 0, k.Orientation(open))
}

func TestSplitClosedCurve(t *testing.T) {
	k := NewPlanar(0)
	c := k.Circle(Point{}, 10)
	l := c.Length()

	pieces := k.Split(c, l/4, l/2)
	require.Len(t, pieces, 3)
	var total float64
	for _, p := range pieces {
		total += p.Length()
	}
	assert.InDelta(t, l, total, 1e-9)
	assert.InDelta(t, 0, planarDist(pieces[0].End(), pieces[1].Start()), 1e-9)
	assert.InDelta(t, 0, planarDist(pieces[2].End(), c.Start()), 1e-9)
}

func TestIntersectLineAndCircle(t *testing.T) {
	k := NewPlanar(0)
	c := k.Circle(Point{}, 5)
	line := k.Line(Point{X: -10}, Point{X: 10})

	onLine := k.Intersect(line, c)
	require.Len(t, onLine, 2)
	assert.InDelta(t, 5, onLine[0], 1e-9)
	assert.InDelta(t, 15, onLine[1], 1e-9)

	onCircle := k.Intersect(c, line)
	require.Len(t, onCircle, 2)
	assert.InDelta(t, 0, onCircle[0], 1e-9)
	assert.InDelta(t, 5*math.Pi, onCircle[1], 1e-9)
}

func TestIntersectCircles(t *testing.T) {
	k := NewPlanar(0)
	a := k.Circle(Point{}, 5)
	b := k.Circle(Point{X: 6}, 5)
	assert.Len(t, k.Intersect(a, b), 2)

	far := k.Circle(Point{X: 20}, 5)
	assert.Empty(t, k.Intersect(a, far))
}

func TestSetSeam(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 10)
	l := sq.Length()

	k.SetSeam(sq, 15)
	assert.True(t, sq.Closed())
	assert.InDelta(t, l, sq.Length(), 1e-9)
	assert.InDelta(t, 5, sq.Start().X, 1e-9)
	assert.InDelta(t, 0, sq.Start().Y, 1e-9)

	c := k.Circle(Point{}, 1)
	k.SetSeam(c, math.Pi/2)
	require.Len(t, c.Segments(), 1)
	assert.InDelta(t, 0, c.Start().X, 1e-9)
	assert.InDelta(t, 1, c.Start().Y, 1e-9)
}

func TestClosestPointAndDivide(t *testing.T) {
	k := NewPlanar(0)
	line := k.Line(Point{}, Point{X: 10})

	p, at := k.ClosestPoint(line, Point{X: 3, Y: 7})
	assert.InDelta(t, 3, p.X, 1e-9)
	assert.InDelta(t, 3, at, 1e-9)

	pts := k.DivideByCount(line, 4)
	require.Len(t, pts, 5)
	assert.InDelta(t, 2.5, pts[1].X, 1e-9)
	assert.Equal(t, line.End(), pts[4])

	assert.Len(t, k.DivideByLength(line, 3), 4)
}

func TestBezierSegment(t *testing.T) {
	k := NewPlanar(0)
	c := k.FromSegments([]Segment{BezierSegment(
		Point{}, Point{X: 0, Y: 10}, Point{X: 10, Y: 10}, Point{X: 10},
	)})

	assert.Greater(t, c.Length(), 10.0)
	mid := c.PointAt(c.Length() / 2)
	assert.InDelta(t, 5, mid.X, 1e-3)

	pieces := k.Split(c, c.Length()/2)
	require.Len(t, pieces, 2)
	assert.InDelta(t, c.Length(), pieces[0].Length()+pieces[1].Length(), 1e-2)

	k.Reverse(c)
	assert.Equal(t, Point{X: 10}, c.Start())
}

func TestScaleAndBoundingBox(t *testing.T) {
	k := NewPlanar(0)
	sq := square(k, 0, 0, 10)
	big := k.Scale(sq, Point{}, 1.2)

	box := k.BoundingBox(big)
	assert.Equal(t, r2.Vec{X: -6, Y: -6}, box.Min)
	assert.Equal(t, r2.Vec{X: 6, Y: 6}, box.Max)
}

func TestLiveHandles(t *testing.T) {
	k := NewPlanar(0)
	a := k.Line(Point{}, Point{X: 1})
	b := k.Copy(a)
	joined := k.Join(a, b)
	assert.Equal(t, 3, k.Live())

	k.Release(a, b, joined, nil)
	assert.Equal(t, 0, k.Live())
}
