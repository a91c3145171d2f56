package engine

import (
	"log"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
)

// Planner turns classified features into compensated, multi-level motion
// segments.
type Planner struct {
	Kernel         geom.Kernel
	General        model.GeneralParams
	Logger         *log.Logger
	MaxPocketDepth int
}

func (p *Planner) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}

// Plan fills in the cut curve, representative point and motion segments of
// f. The representative point is the centroid of a closed source and the
// start of anything else. Geometry problems degrade the feature instead of failing it.
func (p *Planner) Plan(f *model.Feature) {
	k := p.Kernel
	f.Params = f.Params.Normalized()
	f.Representative = f.StartPoint()
	if f.Source.Kind == model.ShapeCurve && f.Source.Closed() {
		f.Representative = k.Centroid(f.Source.Curve)
	}

	switch {
	case f.Source.Kind == model.ShapePoint:
		f.Segments = p.drillPath(f.Source.Point, f.Params)
	case f.Compensation == 0 || !f.Source.Closed():
		f.CutCurve = k.Copy(f.Source.Curve)
		f.Segments = p.openPath(f.CutCurve, f.Params)
	default:
		p.planClosed(f)
	}
}

func (p *Planner) planClosed(f *model.Feature) {
	k := p.Kernel
	mp := f.Params
	radius := p.General.CutDiam / 2
	tol := p.General.Tolerance

	cut, ok := compensate(k, f.Source.Curve, f.Compensation, radius, tol)
	if !ok {
		p.logf("feature %s: tool compensation: %v, cutting on the drawn curve", f.ID, ErrGeometryDegenerate)
	}
	f.CutCurve = cut

	switch {
	case mp.FinishPass > 0 && mp.FinishEntries > 0:
		rough, ok := compensate(k, f.Source.Curve, f.Compensation, radius+mp.FinishPass, tol)
		if !ok {
			p.logf("feature %s: roughing offset: %v", f.ID, ErrGeometryDegenerate)
		}
		f.Segments = p.closedPath(f, rough, mp, f.Pocketing, nil)
		k.Release(rough)

		fin := mp
		fin.Entries = mp.FinishEntries
		f.Segments = append(f.Segments, p.closedPath(f, cut, fin, false, nil)...)
	case mp.FinishPass > 0:
		rough, ok := compensate(k, cut, f.Compensation, mp.FinishPass, tol)
		if !ok {
			p.logf("feature %s: roughing offset: %v", f.ID, ErrGeometryDegenerate)
		}
		f.Segments = p.closedPath(f, rough, mp, f.Pocketing, cut)
		k.Release(rough)
	default:
		f.Segments = p.closedPath(f, cut, mp, f.Pocketing, nil)
	}
}

// closedPath cuts main level by level. Each level ramps down along the
// first PlungeDistance of the curve and cuts the rest flat; the ramp span
// is cut once more at final depth. When finish is set it is cut at final
// depth after the last level, entered and left at its closest point.
func (p *Planner) closedPath(f *model.Feature, main *geom.Curve, mp model.MachiningParams, pocketing bool, finish *geom.Curve) []model.MotionSegment {
	k := p.Kernel
	var segs []model.MotionSegment
	add := func(class model.MotionClass, c *geom.Curve) {
		if c != nil {
			segs = append(segs, model.MotionSegment{Class: class, Curve: c})
		}
	}

	length := main.Length()
	plunge := mp.PlungeDistance
	if plunge <= 0 || plunge >= length {
		plunge = 0.8 * length
	}
	parts := k.Split(main, plunge)
	defer k.Release(parts...)
	plungeArc := parts[0]
	var cutArc *geom.Curve
	if len(parts) > 1 {
		cutArc = parts[1]
	}

	ld := mp.Depth / float64(mp.Entries)
	n := max(1, int(plungeArc.Length()/p.General.Tolerance))
	pts := k.DivideByCount(plungeArc, n)
	for i := range pts {
		pts[i].Z -= ld * float64(n-i) / float64(n)
	}
	ramp := k.Polyline(pts)
	defer k.Release(ramp)

	segs = append(segs, p.approach(main.Start(), main.Start().Z)...)

	var sweep *Sweep
	if pocketing {
		sw, err := p.filler(mp).Fill(k, main)
		if err != nil {
			p.logf("feature %s: pocketing disabled: %v", f.ID, err)
			f.Pocketing = false
		} else {
			sweep = sw
			defer sweep.Release()
		}
	}

	for e := 1; e <= mp.Entries; e++ {
		dz := ld * float64(e)
		add(model.MotionPlunge, shifted(k, ramp, dz))
		if cutArc != nil {
			add(model.MotionCut, shifted(k, cutArc, dz))
		}
		if sweep != nil {
			segs = append(segs, sweep.Level(dz)...)
		}
	}

	final := shifted(k, plungeArc, ld*float64(mp.Entries))
	add(model.MotionCut, final)
	end := final.End()

	if finish != nil {
		fc := shifted(k, finish, end.Z-finish.Start().Z)
		_, at := k.ClosestPoint(fc, end)
		k.SetSeam(fc, at)
		add(model.MotionCut, line(k, end, fc.Start()))
		add(model.MotionCut, fc)
		add(model.MotionCut, line(k, fc.End(), end))
	}

	add(model.MotionRapid, line(k, end, geom.Point{X: end.X, Y: end.Y, Z: p.General.SecPlane}))
	return segs
}

// openPath cuts c once per level, reversing every other level so the tool
// never travels back at height.
func (p *Planner) openPath(c *geom.Curve, mp model.MachiningParams) []model.MotionSegment {
	k := p.Kernel
	ld := mp.Depth / float64(mp.Entries)

	var segs []model.MotionSegment
	var prev *geom.Curve
	for e := 1; e <= mp.Entries; e++ {
		lvl := shifted(k, c, ld*float64(e))
		if e%2 == 0 {
			k.Reverse(lvl)
		}
		if prev == nil {
			segs = append(segs, p.approach(lvl.Start(), c.Start().Z)...)
		} else if l := line(k, prev.End(), lvl.Start()); l != nil {
			segs = append(segs, model.MotionSegment{Class: model.MotionPlunge, Curve: l})
		}
		segs = append(segs, model.MotionSegment{Class: model.MotionCut, Curve: lvl})
		prev = lvl
	}

	end := prev.End()
	if l := line(k, end, geom.Point{X: end.X, Y: end.Y, Z: p.General.SecPlane}); l != nil {
		segs = append(segs, model.MotionSegment{Class: model.MotionRapid, Curve: l})
	}
	return segs
}

// drillPath pecks into pt one level at a time, clearing to 2 units above
// the point between levels.
func (p *Planner) drillPath(pt geom.Point, mp model.MachiningParams) []model.MotionSegment {
	k := p.Kernel
	ld := mp.Depth / float64(mp.Entries)
	top := geom.Point{X: pt.X, Y: pt.Y, Z: pt.Z + 2}
	sec := geom.Point{X: pt.X, Y: pt.Y, Z: p.General.SecPlane}

	segs := []model.MotionSegment{{Class: model.MotionRapid, Curve: k.Line(sec, top)}}
	for e := 1; e <= mp.Entries; e++ {
		bottom := geom.Point{X: pt.X, Y: pt.Y, Z: pt.Z + ld*float64(e)}
		segs = append(segs,
			model.MotionSegment{Class: model.MotionPlunge, Curve: k.Line(top, bottom)},
			model.MotionSegment{Class: model.MotionRapid, Curve: k.Line(bottom, top)},
		)
	}
	return append(segs, model.MotionSegment{Class: model.MotionRapid, Curve: k.Line(top, sec)})
}

// approach comes down from the retract plane above start: rapid for 80% of
// the way to the surface, then plunge feed the rest of the way to start.
func (p *Planner) approach(start geom.Point, surface float64) []model.MotionSegment {
	top := geom.Point{X: start.X, Y: start.Y, Z: p.General.SecPlane}
	mid := top
	mid.Z += 0.8 * (surface - top.Z)
	var segs []model.MotionSegment
	if c := line(p.Kernel, top, mid); c != nil {
		segs = append(segs, model.MotionSegment{Class: model.MotionRapid, Curve: c})
	}
	if c := line(p.Kernel, mid, start); c != nil {
		segs = append(segs, model.MotionSegment{Class: model.MotionPlunge, Curve: c})
	}
	return segs
}

func (p *Planner) filler(mp model.MachiningParams) PocketFiller {
	step := p.General.CutDiam * mp.XYDist
	if mp.CircularPocketing {
		return CircularFiller{
			Step:         step,
			ToolDiameter: p.General.CutDiam,
			SecPlane:     p.General.SecPlane,
			Tolerance:    p.General.Tolerance,
		}
	}
	return OffsetFiller{
		Step:      step,
		SecPlane:  p.General.SecPlane,
		Tolerance: p.General.Tolerance,
		MaxDepth:  p.MaxPocketDepth,
		Logger:    p.Logger,
	}
}
