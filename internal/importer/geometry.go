package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
)

// GeometryDocument is the JSON interchange format for drawings produced by
// other tools.
type GeometryDocument struct {
	Units  string        `json:"units,omitempty"`
	Shapes []ShapeRecord `json:"shapes"`
}

// ShapeRecord is one shape of a GeometryDocument. Type selects which of the
// remaining fields are read:
//
//	point     Point
//	polyline  Points, Closed
//	circle    Center, Radius
//	arc       Center, Radius, StartAngle, Sweep (degrees, positive CCW)
//	path      Segments
type ShapeRecord struct {
	Type       string          `json:"type"`
	Color      string          `json:"color"`
	Label      string          `json:"label,omitempty"`
	Point      []float64       `json:"point,omitempty"`
	Points     [][]float64     `json:"points,omitempty"`
	Closed     bool            `json:"closed,omitempty"`
	Center     []float64       `json:"center,omitempty"`
	Radius     float64         `json:"radius,omitempty"`
	StartAngle float64         `json:"start_angle,omitempty"`
	Sweep      float64         `json:"sweep,omitempty"`
	Segments   []SegmentRecord `json:"segments,omitempty"`
}

// SegmentRecord is one primitive of a path shape.
type SegmentRecord struct {
	Kind       string    `json:"kind"` // line, arc or bezier
	Start      []float64 `json:"start,omitempty"`
	End        []float64 `json:"end,omitempty"`
	Center     []float64 `json:"center,omitempty"`
	Radius     float64   `json:"radius,omitempty"`
	StartAngle float64   `json:"start_angle,omitempty"`
	Sweep      float64   `json:"sweep,omitempty"`
	Ctrl1      []float64 `json:"ctrl1,omitempty"`
	Ctrl2      []float64 `json:"ctrl2,omitempty"`
}

// ImportGeometry reads a JSON geometry document from a file.
func ImportGeometry(path string, k geom.Kernel) ImportResult {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	defer f.Close()
	return ReadGeometry(f, k)
}

// ReadGeometry decodes a JSON geometry document and builds its shapes.
func ReadGeometry(r io.Reader, k geom.Kernel) ImportResult {
	result := ImportResult{}

	var doc GeometryDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse geometry: %v", err))
		return result
	}

	scale := 1.0
	switch doc.Units {
	case "", "mm":
	case "in", "inch":
		scale = 25.4
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("Unknown units %q", doc.Units))
		return result
	}

	for i, rec := range doc.Shapes {
		label := fmt.Sprintf("Shape %d", i+1)
		if rec.Label != "" {
			label = rec.Label
		}

		color, err := model.ParseColor(rec.Color)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v, skipped", label, err))
			continue
		}

		shape, err := rec.build(k, scale)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v, skipped", label, err))
			continue
		}
		shape.Color = color
		shape.Label = label
		result.Shapes = append(result.Shapes, shape)
	}

	if len(result.Shapes) == 0 {
		result.Errors = append(result.Errors, "Document contains no usable shapes")
	}
	return result
}

func (rec ShapeRecord) build(k geom.Kernel, scale float64) (model.Shape, error) {
	pt := func(v []float64) geom.Point {
		p := vec(v)
		return geom.Point{X: p.X * scale, Y: p.Y * scale, Z: p.Z * scale}
	}

	switch rec.Type {
	case "point":
		if len(rec.Point) < 2 {
			return model.Shape{}, fmt.Errorf("point needs x and y")
		}
		return model.Shape{Kind: model.ShapePoint, Point: pt(rec.Point)}, nil

	case "polyline":
		if len(rec.Points) < 2 {
			return model.Shape{}, fmt.Errorf("polyline needs at least 2 points")
		}
		pts := make([]geom.Point, 0, len(rec.Points)+1)
		for _, v := range rec.Points {
			pts = append(pts, pt(v))
		}
		if rec.Closed && planar(pts[0], pts[len(pts)-1]) > 1e-9 {
			pts = append(pts, pts[0])
		}
		return model.Shape{Kind: model.ShapeCurve, Curve: k.Polyline(pts)}, nil

	case "circle":
		if rec.Radius <= 0 {
			return model.Shape{}, fmt.Errorf("circle radius must be positive")
		}
		return model.Shape{Kind: model.ShapeCurve, Curve: k.Circle(pt(rec.Center), rec.Radius*scale)}, nil

	case "arc":
		if rec.Radius <= 0 || rec.Sweep == 0 {
			return model.Shape{}, fmt.Errorf("arc needs a positive radius and a sweep")
		}
		c := k.Arc(pt(rec.Center), rec.Radius*scale, deg(rec.StartAngle), deg(rec.Sweep))
		return model.Shape{Kind: model.ShapeCurve, Curve: c}, nil

	case "path":
		if len(rec.Segments) == 0 {
			return model.Shape{}, fmt.Errorf("path has no segments")
		}
		segs := make([]geom.Segment, 0, len(rec.Segments))
		for _, s := range rec.Segments {
			switch s.Kind {
			case "line":
				segs = append(segs, geom.LineSegment(pt(s.Start), pt(s.End)))
			case "arc":
				if s.Radius <= 0 {
					return model.Shape{}, fmt.Errorf("arc segment radius must be positive")
				}
				segs = append(segs, geom.ArcSegment(pt(s.Center), s.Radius*scale, deg(s.StartAngle), deg(s.Sweep)))
			case "bezier":
				segs = append(segs, geom.BezierSegment(pt(s.Start), pt(s.Ctrl1), pt(s.Ctrl2), pt(s.End)))
			default:
				return model.Shape{}, fmt.Errorf("unknown segment kind %q", s.Kind)
			}
		}
		return model.Shape{Kind: model.ShapeCurve, Curve: k.FromSegments(segs)}, nil
	}
	return model.Shape{}, fmt.Errorf("unknown shape type %q", rec.Type)
}

func deg(a float64) float64 {
	return a * math.Pi / 180
}
