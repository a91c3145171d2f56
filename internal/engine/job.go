package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
)

var (
	// ErrNoFeatures is returned when no input shape maps to a machining operation.
	ErrNoFeatures = errors.New("no machinable features")
	// ErrMissingParams is returned when the job state lacks what planning needs.
	ErrMissingParams = errors.New("missing job parameters")
	// ErrGeometryDegenerate marks an offset, split or intersection that did
	// not give the single curve a step needed. It is logged, never returned
	// from Run.
	ErrGeometryDegenerate = errors.New("degenerate geometry")
)

// State is everything one run needs. The driver owns it; nothing in this
// package keeps state between runs.
type State struct {
	Kernel  geom.Kernel
	Preset  model.Preset
	Post    model.PostTemplate
	Options model.JobOptions
	Logger  *log.Logger

	// Progress, when set, is called after each feature is planned.
	Progress func(done, total int)
}

// Result is the outcome of a run. Features own their curves until Release.
type Result struct {
	Features  []*model.Feature
	Program   []string
	CycleTime float64 // Estimated minutes
	Zero      *geom.Point
	Skipped   int // Shapes that map to no operation
}

// Release hands every feature curve back to the kernel.
func (r *Result) Release(k geom.Kernel) {
	for _, f := range r.Features {
		f.Release(k)
	}
	r.Features = nil
}

// Run classifies shapes, plans each feature, orders the result and emits
// the program. Features are numbered in input order, so the same shapes
// always give the same program. Cancellation is checked between features; on any error
// every curve created so far has been released.
func Run(ctx context.Context, st *State, shapes []model.Shape) (*Result, error) {
	if st == nil || st.Kernel == nil {
		return nil, fmt.Errorf("%w: geometry kernel", ErrMissingParams)
	}
	general := st.Preset.General.Normalized()
	if err := general.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingParams, err)
	}
	logger := st.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	k := st.Kernel

	res := &Result{}
	cls := Classifier{Tolerance: st.Options.ColorTolerance}
	for _, s := range shapes {
		if cls.IsZeroReference(s) {
			if res.Zero != nil {
				logger.Printf("ignoring extra zero reference at (%g, %g)", s.Point.X, s.Point.Y)
				continue
			}
			zero := s.Point
			res.Zero = &zero
			continue
		}
		c, ok := cls.Classify(s)
		if !ok {
			res.Skipped++
			continue
		}
		f := model.NewFeature(c.Role, c.Compensation, c.Pocketing, s)
		f.ID = strconv.Itoa(len(res.Features) + 1)
		f.Params = st.Preset.ParamsFor(c.Role)
		res.Features = append(res.Features, f)
	}
	if res.Skipped > 0 {
		logger.Printf("skipped %d shapes with no machining colour", res.Skipped)
	}
	if len(res.Features) == 0 {
		return nil, ErrNoFeatures
	}

	planner := &Planner{
		Kernel:         k,
		General:        general,
		Logger:         logger,
		MaxPocketDepth: st.Options.MaxPocketDepth,
	}
	for i, f := range res.Features {
		if err := ctx.Err(); err != nil {
			res.Release(k)
			return nil, err
		}
		planner.Plan(f)
		if st.Progress != nil {
			st.Progress(i+1, len(res.Features))
		}
	}

	ordered := res.Features
	if st.Options.Sorting {
		ordered = DefaultOrder(ordered)
	}
	if st.Options.SortClosest {
		ordered = NearestNeighborOrder(ordered)
	}
	if st.Options.AutoCluster {
		ordered = AssignClusters(k, ordered)
	}
	res.Features = ordered

	em := gcode.NewEmitter(k, st.Post, general)
	program, samples := em.Program(res.Features, res.Zero)
	res.Program = program
	res.CycleTime = gcode.EstimateTime(samples)
	logger.Printf("planned %d features, estimated %.2f min", len(res.Features), res.CycleTime)
	return res, nil
}
