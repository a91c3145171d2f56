package engine

import (
	"math"
	"testing"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensateDistanceAndWinding(t *testing.T) {
	k := geom.NewPlanar(0)
	src := square(k, 0, 0, 40)

	outer, ok := compensate(k, src, 1, 3, 1)
	require.True(t, ok)
	assert.Equal(t, 1, k.Orientation(outer))
	for _, p := range outer.Flatten(0.01) {
		assert.InDelta(t, 3, squareDist(p, 40), 0.02)
	}

	inner, ok := compensate(k, src, -1, 3, 1)
	require.True(t, ok)
	assert.Equal(t, -1, k.Orientation(inner))
	for _, p := range inner.Flatten(0.01) {
		assert.InDelta(t, -3, squareDist(p, 40), 1e-6)
	}
}

func TestCompensateConcaveShape(t *testing.T) {
	k := geom.NewPlanar(0)
	// A U shape whose centroid falls in the notch.
	u := k.Polyline([]geom.Point{
		{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 30}, {X: 20, Y: 30}, {X: 20, Y: 5},
		{X: 10, Y: 5}, {X: 10, Y: 30}, {X: 0, Y: 30}, {X: 0, Y: 0},
	})
	require.False(t, k.Contains(u, k.Centroid(u)))

	inner, ok := compensate(k, u, -1, 1, 0.5)
	require.True(t, ok)
	assert.Less(t, k.Area(inner), k.Area(u))
	assert.Equal(t, -1, k.Orientation(inner))
}

func TestCompensateFilletedCorner(t *testing.T) {
	for _, tol := range []float64{0.01, 0.05, 0.5} {
		k := geom.NewPlanar(tol)
		src := filletedL(k, 5)

		outer, ok := compensate(k, src, 1, 3, tol)
		require.True(t, ok, "tol %v", tol)
		assert.Greater(t, k.Area(outer), k.Area(src), "tol %v", tol)
		assert.Equal(t, 1, k.Orientation(outer))
		assert.True(t, k.Contains(outer, geom.Point{X: 10, Y: 10}))

		inner, ok := compensate(k, src, -1, 3, tol)
		require.True(t, ok, "tol %v", tol)
		assert.Less(t, k.Area(inner), k.Area(src), "tol %v", tol)
		assert.Equal(t, -1, k.Orientation(inner))

		for _, c := range []*geom.Curve{outer, inner} {
			for _, p := range c.Flatten(tol) {
				on, _ := k.ClosestPoint(src, p)
				assert.InDelta(t, 3, planarDist(on, p), 2*tol+1e-6, "tol %v at %v", tol, p)
			}
		}
		k.Release(src, outer, inner)
	}
}

func TestCompensateFallsBackToSource(t *testing.T) {
	k := geom.NewPlanar(0)
	small := k.Circle(geom.Point{}, 2)

	got, ok := compensate(k, small, -1, 3, 1)
	assert.False(t, ok)
	assert.InDelta(t, k.Area(small), k.Area(got), 1e-9)
	assert.Equal(t, -1, k.Orientation(got))
}

func TestRedSquareTwoLevels(t *testing.T) {
	k := geom.NewPlanar(0)
	f := planned(t, k, curveShape(square(k, 0, 0, 40), model.Red))

	require.NotNil(t, f.CutCurve)
	for _, p := range f.CutCurve.Flatten(0.01) {
		assert.InDelta(t, 3, squareDist(p, 40), 0.02)
	}

	rapids := 0
	levels := map[float64]bool{}
	for _, s := range f.Segments {
		switch s.Class {
		case model.MotionRapid:
			rapids++
		case model.MotionCut:
			for _, p := range vertices(s.Curve) {
				levels[math.Round(p.Z*1e6)/1e6] = true
			}
		}
	}
	assert.Equal(t, 2, rapids, "one rapid in, one rapid out")
	assert.Equal(t, map[float64]bool{-5: true, -10: true}, levels)

	first, last := f.Segments[0], f.Segments[len(f.Segments)-1]
	assert.Equal(t, model.MotionRapid, first.Class)
	assert.Equal(t, 10.0, first.Curve.Start().Z)
	assert.Equal(t, model.MotionRapid, last.Class)
	assert.Equal(t, 10.0, last.Curve.End().Z)

	// Each level cuts past the ramp, then the ramp span is cut at final depth.
	var cut float64
	for _, s := range f.Segments {
		if s.Class == model.MotionCut {
			cut += s.Curve.Length()
		}
	}
	assert.InDelta(t, f.CutCurve.Length()*2-20, cut, 1e-6)
}

func TestRampDescendsOneLevel(t *testing.T) {
	k := geom.NewPlanar(0)
	f := planned(t, k, curveShape(square(k, 0, 0, 40), model.Blue))

	var ramps []*geom.Curve
	for _, s := range f.Segments[2:] {
		if s.Class == model.MotionPlunge {
			ramps = append(ramps, s.Curve)
		}
	}
	require.Len(t, ramps, 2)
	assert.InDelta(t, 0, ramps[0].Start().Z, 1e-9)
	assert.InDelta(t, -5, ramps[0].End().Z, 1e-9)
	assert.InDelta(t, -5, ramps[1].Start().Z, 1e-9)
	assert.InDelta(t, -10, ramps[1].End().Z, 1e-9)
	assert.InDelta(t, 20, ramps[0].Length(), 6, "ramp spans the plunge distance")
}

func TestGreenOpenLine(t *testing.T) {
	k := geom.NewPlanar(0)
	f := planned(t, k, curveShape(k.Line(geom.Point{}, geom.Point{X: 50}), model.Green))

	assert.Equal(t, []model.MotionClass{
		model.MotionRapid, model.MotionPlunge, model.MotionCut, model.MotionRapid,
	}, classes(f.Segments))
	cut := f.Segments[2].Curve
	assert.Equal(t, geom.Point{Z: -5}, cut.Start())
	assert.Equal(t, geom.Point{X: 50, Z: -5}, cut.End())
	assert.False(t, f.Pocketing)
	assert.Equal(t, 0, f.Compensation)
}

func TestOpenPathAlternatesDirection(t *testing.T) {
	k := geom.NewPlanar(0)
	preset := testPreset()
	f := model.NewFeature(model.RoleEngrave, 0, false, curveShape(k.Line(geom.Point{}, geom.Point{X: 10}), model.Green))
	f.Params = preset.Engrave
	f.Params.Entries = 3
	f.Params.Depth = -3
	(&Planner{Kernel: k, General: preset.General}).Plan(f)

	var cuts []*geom.Curve
	for _, s := range f.Segments {
		if s.Class == model.MotionCut {
			cuts = append(cuts, s.Curve)
		}
	}
	require.Len(t, cuts, 3)
	assert.Equal(t, geom.Point{X: 10, Z: -2}, cuts[1].Start())
	assert.Equal(t, geom.Point{Z: -2}, cuts[1].End())
	assert.Equal(t, geom.Point{Z: -3}, cuts[2].Start())
}

func TestDrillPecks(t *testing.T) {
	k := geom.NewPlanar(0)
	f := planned(t, k, pointShape(geom.Point{X: 5, Y: 5}, model.Black))

	assert.Equal(t, []model.MotionClass{
		model.MotionRapid,
		model.MotionPlunge, model.MotionRapid,
		model.MotionPlunge, model.MotionRapid,
		model.MotionRapid,
	}, classes(f.Segments))
	assert.Equal(t, geom.Point{X: 5, Y: 5, Z: 10}, f.Segments[0].Curve.Start())
	assert.Equal(t, geom.Point{X: 5, Y: 5, Z: 2}, f.Segments[0].Curve.End())
	assert.Equal(t, -3.0, f.Segments[1].Curve.End().Z)
	assert.Equal(t, -6.0, f.Segments[3].Curve.End().Z)
	assert.Equal(t, 10.0, f.Segments[5].Curve.End().Z)
}

func TestFinishPassOnCompensatedCurve(t *testing.T) {
	k := geom.NewPlanar(0)
	preset := testPreset()
	src := curveShape(square(k, 0, 0, 40), model.Red)
	f := model.NewFeature(model.RoleOutsideCut, 1, false, src)
	f.Params = preset.Cut
	f.Params.FinishPass = 0.5
	(&Planner{Kernel: k, General: preset.General}).Plan(f)

	n := len(f.Segments)
	require.Greater(t, n, 5)
	finish := f.Segments[n-3]
	assert.Equal(t, model.MotionCut, finish.Class)
	assert.True(t, finish.Curve.Closed())
	for _, p := range finish.Curve.Flatten(0.01) {
		assert.InDelta(t, 3, squareDist(p, 40), 0.02)
		assert.InDelta(t, -10, p.Z, 1e-9)
	}
	assert.InDelta(t, 0.5, f.Segments[n-4].Curve.Length(), 0.05, "bridge onto the finishing curve")

	// Roughing levels leave the finishing stock.
	rough := f.Segments[3].Curve
	assert.InDelta(t, 3.5, squareDist(rough.Start(), 40), 0.02)
}

func TestFinishEntriesRunsSecondSequence(t *testing.T) {
	k := geom.NewPlanar(0)
	preset := testPreset()
	f := model.NewFeature(model.RoleInsideCut, -1, false, curveShape(square(k, 0, 0, 40), model.Blue))
	f.Params = preset.Cut
	f.Params.FinishPass = 0.5
	f.Params.FinishEntries = 1
	(&Planner{Kernel: k, General: preset.General}).Plan(f)

	rapids := 0
	for _, s := range f.Segments {
		if s.Class == model.MotionRapid {
			rapids++
		}
	}
	assert.Equal(t, 4, rapids, "two sequences, each with rapid in and out")

	last := f.Segments[len(f.Segments)-2].Curve
	assert.InDelta(t, -3, squareDist(last.Start(), 40), 1e-6)
	assert.InDelta(t, -10, last.Start().Z, 1e-9)
	assert.InDelta(t, -3.5, squareDist(f.Segments[3].Curve.Start(), 40), 1e-6)
}

func TestShortPlungeDistanceIsClamped(t *testing.T) {
	k := geom.NewPlanar(0)
	preset := testPreset()
	c := k.Circle(geom.Point{}, 10)
	f := model.NewFeature(model.RoleInsideCut, -1, false, curveShape(c, model.Blue))
	f.Params = preset.Cut
	f.Params.PlungeDistance = 1000
	(&Planner{Kernel: k, General: preset.General}).Plan(f)

	ramp := f.Segments[2].Curve
	require.Equal(t, model.MotionPlunge, f.Segments[2].Class)
	assert.InDelta(t, 0.8*f.CutCurve.Length(), ramp.Length(), 0.5)
}
