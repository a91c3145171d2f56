package engine

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(k geom.Kernel) *State {
	return &State{
		Kernel:  k,
		Preset:  testPreset(),
		Post:    model.DefaultPost(),
		Options: model.DefaultJobOptions(),
	}
}

func mixedShapes(k geom.Kernel) []model.Shape {
	return []model.Shape{
		curveShape(square(k, 0, 0, 120), model.Red),
		curveShape(square(k, 20, 20, 40), model.Magenta),
		curveShape(k.Circle(geom.Point{X: -30, Y: -30}, 10), model.Blue),
		curveShape(k.Line(geom.Point{X: -40, Y: 40}, geom.Point{X: 0, Y: 40}), model.Green),
		pointShape(geom.Point{X: 200, Y: 0}, model.Black),
		curveShape(square(k, 300, 300, 10), model.Black),
	}
}

func releaseShapes(k geom.Kernel, shapes []model.Shape) {
	for _, s := range shapes {
		if s.Curve != nil {
			k.Release(s.Curve)
		}
	}
}

func TestRunMixedJob(t *testing.T) {
	k := geom.NewPlanar(0)
	shapes := mixedShapes(k)
	st := newState(k)
	var progress []int
	st.Progress = func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	}

	res, err := Run(context.Background(), st, shapes)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Features, 5)

	// The outside cut's cluster comes first and ends with the cut itself.
	assert.Equal(t, model.RoleOutsideCut, res.Features[3].Role)
	assert.True(t, res.Features[3].HasChildren)
	assert.Equal(t, model.RoleDrill, res.Features[4].Role)
	assert.Equal(t, -1, res.Features[4].Cluster)

	assert.Equal(t, model.DefaultPost().Header, res.Program[:4])
	assert.Equal(t, "G00 Z10.00 F5000", res.Program[4])
	assert.Equal(t, "M5", res.Program[len(res.Program)-1])
	assert.Greater(t, res.CycleTime, 0.0)

	moves := gcode.Parse(strings.Join(res.Program, "\n"))
	assert.Greater(t, len(moves), 20)

	res.Release(k)
	releaseShapes(k, shapes)
	assert.Equal(t, 0, k.Live(), "every planning curve is released")
}

func TestRunIsDeterministic(t *testing.T) {
	k := geom.NewPlanar(0)
	shapes := mixedShapes(k)
	st := newState(k)
	st.Post = model.GetPost("Grbl")

	first, err := Run(context.Background(), st, shapes)
	require.NoError(t, err)
	second, err := Run(context.Background(), st, shapes)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Program, second.Program); diff != "" {
		t.Errorf("program changed between runs (-first +second):\n%s", diff)
	}
	assert.Contains(t, first.Program, "; OutsideCut 1")

	first.Release(k)
	second.Release(k)
	releaseShapes(k, shapes)
}

func TestRunZeroReference(t *testing.T) {
	k := geom.NewPlanar(0)
	shapes := []model.Shape{
		pointShape(geom.Point{X: 10, Y: 10}, model.White),
		curveShape(k.Circle(geom.Point{X: 10, Y: 10}, 20), model.Blue),
	}
	res, err := Run(context.Background(), newState(k), shapes)
	require.NoError(t, err)
	require.NotNil(t, res.Zero)
	require.Len(t, res.Features, 1)

	// Compensated radius is 17 around the zero point.
	assert.Equal(t, "G00 X17.00 Y0.00 Z10.00 F5000", res.Program[5])

	start := res.Features[0].Segments[0].Curve.Start()
	assert.InDelta(t, 27, start.X, 1e-9, "original positions restored")
	assert.InDelta(t, 10, start.Y, 1e-9)

	res.Release(k)
	releaseShapes(k, shapes)
	assert.Equal(t, 0, k.Live())
}

func TestRunExtraZeroReferenceIsLogged(t *testing.T) {
	k := geom.NewPlanar(0)
	var logs bytes.Buffer
	st := newState(k)
	st.Logger = log.New(&logs, "", 0)
	shapes := []model.Shape{
		pointShape(geom.Point{X: 1}, model.White),
		pointShape(geom.Point{X: 2}, model.White),
		pointShape(geom.Point{X: 3}, model.Black),
	}
	res, err := Run(context.Background(), st, shapes)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Zero.X)
	assert.Contains(t, logs.String(), "extra zero reference")
	res.Release(k)
}

func TestRunNoFeatures(t *testing.T) {
	k := geom.NewPlanar(0)
	shapes := []model.Shape{
		curveShape(square(k, 0, 0, 10), model.Black),
		pointShape(geom.Point{}, model.White),
	}
	_, err := Run(context.Background(), newState(k), shapes)
	assert.ErrorIs(t, err, ErrNoFeatures)
	assert.Equal(t, 1, k.Live())
}

func TestRunMissingParams(t *testing.T) {
	_, err := Run(context.Background(), &State{}, nil)
	assert.ErrorIs(t, err, ErrMissingParams)

	k := geom.NewPlanar(0)
	st := newState(k)
	st.Preset.General.CutDiam = 0
	_, err = Run(context.Background(), st, []model.Shape{pointShape(geom.Point{}, model.Black)})
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestRunCancelled(t *testing.T) {
	k := geom.NewPlanar(0)
	shapes := mixedShapes(k)
	ctx, cancel := context.WithCancel(context.Background())
	st := newState(k)
	st.Progress = func(done, total int) {
		if done == 2 {
			cancel()
		}
	}

	_, err := Run(ctx, st, shapes)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, k.Live(), "only the input shapes remain")
}

func TestRunNearestNeighbourWithoutClusters(t *testing.T) {
	k := geom.NewPlanar(0)
	st := newState(k)
	st.Options = model.JobOptions{Sorting: true, SortClosest: true}
	shapes := []model.Shape{
		pointShape(geom.Point{X: 100}, model.Black),
		pointShape(geom.Point{X: 0, Y: 1}, model.Black),
		pointShape(geom.Point{X: 99, Y: 2}, model.Black),
	}
	res, err := Run(context.Background(), st, shapes)
	require.NoError(t, err)

	xs := make([]float64, len(res.Features))
	for i, f := range res.Features {
		xs[i] = f.StartPoint().X
		assert.Equal(t, -1, f.Cluster)
	}
	assert.Equal(t, []float64{100, 99, 0}, xs)
	res.Release(k)
}
