package engine

import (
	"math"
	"strconv"
	"testing"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/stretchr/testify/require"
)

func testPreset() model.Preset {
	p := model.DefaultPreset()
	p.General = model.GeneralParams{SecPlane: 10, FeedRapid: 5000, CutDiam: 6, Tolerance: 1}
	p.Cut = model.MachiningParams{Depth: -10, Entries: 2, PlungeDistance: 20, FeedCut: 1000, FeedPlunge: 300}
	p.Engrave = model.MachiningParams{Depth: -5, Entries: 1, PlungeDistance: 10, FeedCut: 800, FeedPlunge: 200}
	p.Pocket = model.MachiningParams{Depth: -4, Entries: 1, PlungeDistance: 20, FeedCut: 1000, FeedPlunge: 300, XYDist: 0.5}
	p.Drill = model.MachiningParams{Depth: -6, Entries: 2, Feed: 400}
	return p
}

func square(k geom.Kernel, cx, cy, side float64) *geom.Curve {
	h := side / 2
	return k.Polyline([]geom.Point{
		{X: cx - h, Y: cy - h}, {X: cx + h, Y: cy - h},
		{X: cx + h, Y: cy + h}, {X: cx - h, Y: cy + h},
		{X: cx - h, Y: cy - h},
	})
}

// filletedL is an L with 20 wide arms whose inside corner is rounded with
// radius r, running counter-clockwise from the origin.
func filletedL(k geom.Kernel, r float64) *geom.Curve {
	return k.FromSegments([]geom.Segment{
		geom.LineSegment(geom.Point{}, geom.Point{X: 60}),
		geom.LineSegment(geom.Point{X: 60}, geom.Point{X: 60, Y: 20}),
		geom.LineSegment(geom.Point{X: 60, Y: 20}, geom.Point{X: 20 + r, Y: 20}),
		geom.ArcSegment(geom.Point{X: 20 + r, Y: 20 + r}, r, -math.Pi/2, -math.Pi/2),
		geom.LineSegment(geom.Point{X: 20, Y: 20 + r}, geom.Point{X: 20, Y: 60}),
		geom.LineSegment(geom.Point{X: 20, Y: 60}, geom.Point{Y: 60}),
		geom.LineSegment(geom.Point{Y: 60}, geom.Point{}),
	})
}

func curveShape(c *geom.Curve, color model.RGB) model.Shape {
	return model.Shape{Kind: model.ShapeCurve, Curve: c, Color: color}
}

func pointShape(p geom.Point, color model.RGB) model.Shape {
	return model.Shape{Kind: model.ShapePoint, Point: p, Color: color}
}

// planned classifies s and plans it with the test preset.
var featureCount int

// nextID names test features the way Run does, by a running number.
func nextID() string {
	featureCount++
	return strconv.Itoa(featureCount)
}

func planned(t *testing.T, k geom.Kernel, s model.Shape) *model.Feature {
	t.Helper()
	c, ok := Classifier{}.Classify(s)
	require.True(t, ok)
	preset := testPreset()
	f := model.NewFeature(c.Role, c.Compensation, c.Pocketing, s)
	f.ID = nextID()
	f.Params = preset.ParamsFor(c.Role)
	(&Planner{Kernel: k, General: preset.General}).Plan(f)
	return f
}

// vertices returns the start and end of every primitive of c.
func vertices(c *geom.Curve) []geom.Point {
	var pts []geom.Point
	for _, s := range c.Segments() {
		pts = append(pts, s.Start, s.End)
	}
	return pts
}

// squareDist is the distance from p to the outline of the axis aligned
// square of the given side centred on the origin, positive outside.
func squareDist(p geom.Point, side float64) float64 {
	h := side / 2
	dx, dy := math.Abs(p.X)-h, math.Abs(p.Y)-h
	if dx > 0 || dy > 0 {
		return math.Hypot(math.Max(dx, 0), math.Max(dy, 0))
	}
	return math.Max(dx, dy)
}

func classes(segs []model.MotionSegment) []model.MotionClass {
	out := make([]model.MotionClass, len(segs))
	for i, s := range segs {
		out[i] = s.Class
	}
	return out
}
