package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"
)

// DXFOptions tune how loose entities are assembled.
type DXFOptions struct {
	// ChainTolerance joins LINE and ARC entities of the same colour whose
	// end points lie within this distance. 0 keeps every entity separate.
	ChainTolerance float64
}

// aciColors maps AutoCAD colour indices to RGB. Index 7 draws black on
// paper and is read as black so default-layer points stay drills.
var aciColors = map[int]model.RGB{
	1: model.Red,
	2: {R: 255, G: 255},
	3: model.Green,
	4: {G: 255, B: 255},
	5: model.Blue,
	6: model.Magenta,
	7: model.Black,
}

// loose is a single LINE or ARC waiting to be chained.
type loose struct {
	seg   geom.Segment
	color model.RGB
	layer string
}

// ImportDXF reads LINE, ARC, CIRCLE, LWPOLYLINE and POINT entities. The
// colour of a shape comes from its layer: a layer named after a colour
// ("red", "#ff00ff", "0,0,255", "zero") wins over the layer colour index.
func ImportDXF(path string, k geom.Kernel, opts DXFOptions) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var pending []loose
	skipped := 0
	for _, ent := range entities {
		color, layer := entityColor(ent)

		switch e := ent.(type) {
		case *entity.LwPolyline:
			segs := lwPolylineSegments(e)
			if len(segs) == 0 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 2 vertices")
				continue
			}
			result.Shapes = append(result.Shapes, curveShape(k.FromSegments(segs), color, layer))

		case *entity.Circle:
			c := k.Circle(vec(e.Center), e.Radius)
			result.Shapes = append(result.Shapes, curveShape(c, color, layer))

		case *entity.Arc:
			seg := arcSegment(e)
			if opts.ChainTolerance > 0 {
				pending = append(pending, loose{seg: seg, color: color, layer: layer})
				continue
			}
			result.Shapes = append(result.Shapes, curveShape(k.FromSegments([]geom.Segment{seg}), color, layer))

		case *entity.Line:
			seg := geom.LineSegment(vec(e.Start), vec(e.End))
			if opts.ChainTolerance > 0 {
				pending = append(pending, loose{seg: seg, color: color, layer: layer})
				continue
			}
			result.Shapes = append(result.Shapes, curveShape(k.Line(seg.Start, seg.End), color, layer))

		case *entity.Point:
			result.Shapes = append(result.Shapes, model.Shape{
				Kind:  model.ShapePoint,
				Point: vec(e.Coord),
				Color: color,
				Label: layer,
			})

		default:
			skipped++
		}
	}

	for _, chain := range chainSegments(pending, opts.ChainTolerance) {
		result.Shapes = append(result.Shapes,
			curveShape(k.FromSegments(bridged(chain.segs, opts.ChainTolerance)), chain.color, chain.layer))
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d unsupported entities", skipped))
	}
	if len(result.Shapes) == 0 {
		result.Errors = append(result.Errors, "No usable geometry found in DXF file")
	}
	return result
}

func curveShape(c *geom.Curve, color model.RGB, label string) model.Shape {
	return model.Shape{Kind: model.ShapeCurve, Curve: c, Color: color, Label: label}
}

// entityColor resolves the colour and layer name of an entity.
func entityColor(ent entity.Entity) (model.RGB, string) {
	l, ok := ent.(interface{ Layer() *table.Layer })
	if !ok || l.Layer() == nil {
		return model.Black, ""
	}
	layer := l.Layer()
	return layerColor(layer.Name(), int(layer.Color)), layer.Name()
}

func layerColor(name string, aci int) model.RGB {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "zero", "origin":
		return model.White
	}
	if c, err := model.ParseColor(name); err == nil {
		return c
	}
	if c, ok := aciColors[aci]; ok {
		return c
	}
	return model.Black
}

func vec(v []float64) geom.Point {
	var p geom.Point
	if len(v) > 0 {
		p.X = v[0]
	}
	if len(v) > 1 {
		p.Y = v[1]
	}
	if len(v) > 2 {
		p.Z = v[2]
	}
	return p
}

// lwPolylineSegments converts a LWPOLYLINE into line and arc segments.
// A bulge on a vertex turns the span to the next vertex into an arc.
func lwPolylineSegments(lw *entity.LwPolyline) []geom.Segment {
	n := len(lw.Vertices)
	if n < 2 {
		return nil
	}
	spans := n - 1
	if lw.Closed {
		spans = n
	}

	segs := make([]geom.Segment, 0, spans)
	for i := 0; i < spans; i++ {
		a := vec(lw.Vertices[i])
		b := vec(lw.Vertices[(i+1)%n])
		if planar(a, b) < 1e-9 {
			continue
		}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		segs = append(segs, bulgeSegment(a, b, bulge))
	}
	return segs
}

// bulgeSegment returns the span a→b. The bulge is the tangent of a quarter
// of the included angle, positive counter-clockwise.
func bulgeSegment(a, b geom.Point, bulge float64) geom.Segment {
	if math.Abs(bulge) < 1e-9 {
		return geom.LineSegment(a, b)
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	chord := math.Hypot(dx, dy)
	sweep := 4 * math.Atan(bulge)

	// The center sits on the chord bisector, left of a→b for positive sweeps.
	h := chord / 2 / math.Tan(sweep/2)
	center := geom.Point{
		X: (a.X+b.X)/2 - dy/chord*h,
		Y: (a.Y+b.Y)/2 + dx/chord*h,
		Z: a.Z,
	}
	radius := chord / 2 / math.Abs(math.Sin(sweep/2))
	start := math.Atan2(a.Y-center.Y, a.X-center.X)
	return geom.ArcSegment(center, radius, start, sweep)
}

// arcSegment converts a DXF ARC. DXF arcs run counter-clockwise from the
// first angle to the second, in degrees.
func arcSegment(a *entity.Arc) geom.Segment {
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	sweep := end - start
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	return geom.ArcSegment(vec(a.Circle.Center), a.Circle.Radius, start, sweep)
}

func planar(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

type chain struct {
	segs  []geom.Segment
	color model.RGB
	layer string
}

// chainSegments connects loose segments of the same colour end to end,
// reversing pieces where needed. Chains that close up are left closed.
func chainSegments(pending []loose, tolerance float64) []chain {
	used := make([]bool, len(pending))
	var chains []chain

	for first := range pending {
		if used[first] {
			continue
		}
		used[first] = true
		ch := chain{
			segs:  []geom.Segment{pending[first].seg},
			color: pending[first].color,
			layer: pending[first].layer,
		}

		for changed := true; changed; {
			changed = false
			head := ch.segs[0].Start
			tail := ch.segs[len(ch.segs)-1].End
			if len(ch.segs) > 1 && planar(head, tail) <= tolerance {
				break
			}
			for i, l := range pending {
				if used[i] || l.color != ch.color {
					continue
				}
				switch {
				case planar(tail, l.seg.Start) <= tolerance:
					ch.segs = append(ch.segs, l.seg)
				case planar(tail, l.seg.End) <= tolerance:
					ch.segs = append(ch.segs, l.seg.Reverse())
				case planar(head, l.seg.End) <= tolerance:
					ch.segs = append([]geom.Segment{l.seg}, ch.segs...)
				case planar(head, l.seg.Start) <= tolerance:
					ch.segs = append([]geom.Segment{l.seg.Reverse()}, ch.segs...)
				default:
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}
		chains = append(chains, ch)
	}
	return chains
}

// bridged inserts short lines over the gaps chaining tolerated, closing the
// loop as well when head and tail were matched.
func bridged(segs []geom.Segment, tolerance float64) []geom.Segment {
	out := make([]geom.Segment, 0, len(segs)+1)
	for i, s := range segs {
		if i > 0 {
			if prev := out[len(out)-1].End; planar(prev, s.Start) > 1e-9 {
				out = append(out, geom.LineSegment(prev, s.Start))
			}
		}
		out = append(out, s)
	}
	if len(segs) > 1 {
		head, tail := out[0].Start, out[len(out)-1].End
		if d := planar(head, tail); d > 1e-9 && d <= tolerance {
			out = append(out, geom.LineSegment(tail, head))
		}
	}
	return out
}
