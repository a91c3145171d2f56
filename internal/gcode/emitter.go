package gcode

import (
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is one emitted position with the feed it was reached at.
type Sample struct {
	Feed  float64
	Point geom.Point
}

// Emitter writes motion segments as program text for one post template.
type Emitter struct {
	k       geom.Kernel
	post    model.PostTemplate
	general model.GeneralParams
}

func NewEmitter(k geom.Kernel, post model.PostTemplate, general model.GeneralParams) *Emitter {
	return &Emitter{k: k, post: post.Normalized(), general: general}
}

// Program assembles the full program: header, optional spindle start, a
// rapid to the retract plane, every feature in order, then the footer.
// Coordinates are written relative to zero when it is set.
func (e *Emitter) Program(fs []*model.Feature, zero *geom.Point) ([]string, []Sample) {
	p := e.post
	lines := append([]string(nil), p.Header...)
	if p.Spindle != "" && e.general.Spindle > 0 {
		lines = append(lines, p.Spindle+strconv.Itoa(int(e.general.Spindle)))
	}
	secZ := e.general.SecPlane
	if zero != nil {
		secZ -= zero.Z
	}
	lines = append(lines, p.Rapid+" Z"+e.num(secZ)+" "+p.Feed+feed(e.general.FeedRapid))

	var samples []Sample
	for _, f := range fs {
		fl, smp := e.Feature(f, zero)
		lines = append(lines, fl...)
		samples = append(samples, smp...)
	}
	return append(lines, p.Footer...), samples
}

// Feature emits the lines of one feature. The feature's curves are moved
// into the zero reference frame while writing and moved back afterwards.
func (e *Emitter) Feature(f *model.Feature, zero *geom.Point) ([]string, []Sample) {
	if len(f.Segments) == 0 {
		return nil, nil
	}
	if zero != nil {
		back := *zero
		for _, s := range f.Segments {
			e.k.Translate(s.Curve, r3.Scale(-1, back))
		}
		defer func() {
			for _, s := range f.Segments {
				e.k.Translate(s.Curve, back)
			}
		}()
	}

	w := &featureWriter{e: e, feeds: e.feeds(f)}
	if e.post.CommentPrefix != "" {
		w.lines = append(w.lines, e.comment(f.Role.String()+" "+f.ID))
	}

	first := f.Segments[0].Curve
	start := first.Start()
	w.lines = append(w.lines, e.post.Rapid+" X"+e.num(start.X)+" Y"+e.num(start.Y)+" Z"+e.num(start.Z)+
		" "+e.post.Feed+feed(w.feeds[model.MotionRapid]))
	w.sample(model.MotionRapid, start)
	down := first.End()
	w.lines = append(w.lines, e.post.Cut+" Z"+e.num(down.Z)+" "+e.post.Feed+feed(w.feeds[model.MotionPlunge]))
	w.sample(model.MotionPlunge, geom.Point{X: start.X, Y: start.Y, Z: down.Z})
	w.class = f.Segments[0].Class

	for _, s := range f.Segments[1:] {
		for _, seg := range s.Curve.Segments() {
			w.primitive(s.Class, seg)
		}
	}
	return w.lines, w.samples
}

// feeds maps each motion class of f to its feed rate. Drilling uses the
// drill feed for plunges and cuts alike.
func (e *Emitter) feeds(f *model.Feature) map[model.MotionClass]float64 {
	cut, plunge := f.Params.FeedCut, f.Params.FeedPlunge
	if f.Role == model.RoleDrill {
		cut, plunge = f.Params.Feed, f.Params.Feed
	}
	return map[model.MotionClass]float64{
		model.MotionRapid:  e.general.FeedRapid,
		model.MotionPlunge: plunge,
		model.MotionCut:    cut,
	}
}

func (e *Emitter) comment(text string) string {
	if e.post.CommentSuffix != "" {
		return e.post.CommentPrefix + text + e.post.CommentSuffix
	}
	return e.post.CommentPrefix + " " + text
}

// num formats a coordinate with the template's fixed precision. Negative
// zero is written as zero.
func (e *Emitter) num(v float64) string {
	r := scalar.Round(v, e.post.RoundTol)
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', e.post.RoundTol, 64)
}

func feed(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type featureWriter struct {
	e       *Emitter
	feeds   map[model.MotionClass]float64
	class   model.MotionClass
	lines   []string
	samples []Sample
}

func (w *featureWriter) sample(class model.MotionClass, p geom.Point) {
	w.samples = append(w.samples, Sample{Feed: w.feeds[class], Point: p})
}

// move writes one motion word with the given coordinate words, adding the
// feed word when the motion class changes.
func (w *featureWriter) move(class model.MotionClass, word string, coords ...string) {
	var b strings.Builder
	b.WriteString(word)
	for _, c := range coords {
		b.WriteByte(' ')
		b.WriteString(c)
	}
	if class != w.class {
		b.WriteString(" " + w.e.post.Feed + feed(w.feeds[class]))
		w.class = class
	}
	w.lines = append(w.lines, b.String())
}

func (w *featureWriter) word(class model.MotionClass) string {
	if class == model.MotionRapid {
		return w.e.post.Rapid
	}
	return w.e.post.Cut
}

func (w *featureWriter) xyz(p geom.Point) []string {
	e := w.e
	return []string{"X" + e.num(p.X), "Y" + e.num(p.Y), "Z" + e.num(p.Z)}
}

func (w *featureWriter) primitive(class model.MotionClass, s geom.Segment) {
	e := w.e
	tol := e.general.Tolerance
	switch {
	case s.Kind == geom.KindArc:
		if code, ok := e.arcWord(s); ok {
			i := e.num(scalar.Round(s.Center.X, e.post.RoundTol) - scalar.Round(s.Start.X, e.post.RoundTol))
			j := e.num(scalar.Round(s.Center.Y, e.post.RoundTol) - scalar.Round(s.Start.Y, e.post.RoundTol))
			if s.IsCircle() {
				w.move(class, code, "I"+i, "J"+j)
			} else {
				w.move(class, code, append(w.xyz(s.End), "I"+i, "J"+j)...)
			}
			w.sampleArc(class, s)
			return
		}
		w.discretize(class, s)
	case s.Kind == geom.KindLine || s.Length() < tol:
		w.move(class, w.word(class), w.xyz(s.End)...)
		w.sample(class, s.End)
	default:
		w.discretize(class, s)
	}
}

// discretize writes a freeform primitive as max(1, floor(length/tolerance))
// equal straight moves.
func (w *featureWriter) discretize(class model.MotionClass, s geom.Segment) {
	l := s.Length()
	n := max(1, int(math.Floor(l/w.e.general.Tolerance)))
	for i := 1; i <= n; i++ {
		p := s.PointAt(l * float64(i) / float64(n))
		if i == n {
			p = s.End
		}
		w.move(class, w.word(class), w.xyz(p)...)
		w.sample(class, p)
	}
}

// sampleArc records points along an arc so time estimates follow its
// length rather than its chord.
func (w *featureWriter) sampleArc(class model.MotionClass, s geom.Segment) {
	l := s.Length()
	n := max(1, int(math.Ceil(l/w.e.general.Tolerance)))
	for i := 1; i <= n; i++ {
		w.sample(class, s.PointAt(l*float64(i)/float64(n)))
	}
}

// arcWord picks the circular interpolation word for s from the direction
// of its sweep. Planar arcs always lie parallel to the XY plane.
func (e *Emitter) arcWord(s geom.Segment) (string, bool) {
	switch {
	case s.Sweep > 0:
		return e.post.ArcCCW, true
	case s.Sweep < 0:
		return e.post.ArcCW, true
	}
	return "", false
}
