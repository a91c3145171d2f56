package gcode

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/geom"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// MoveType represents the type of a parsed toolpath movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0: rapid positioning
	MoveFeed                    // G1: linear feed with XY travel
	MovePlunge                  // G1 with Z decreasing and no XY travel
	MoveRetract                 // Z increasing without XY travel
	MoveArcCW                   // G2
	MoveArcCCW                  // G3
)

func (t MoveType) String() string {
	switch t {
	case MoveRapid:
		return "rapid"
	case MoveFeed:
		return "feed"
	case MovePlunge:
		return "plunge"
	case MoveRetract:
		return "retract"
	case MoveArcCW:
		return "arc cw"
	case MoveArcCCW:
		return "arc ccw"
	}
	return "unknown"
}

// Move is a single parsed movement in absolute coordinates.
type Move struct {
	Type   MoveType
	From   geom.Point
	To     geom.Point
	Center geom.Point // Arc center, zero for straight moves
	Feed   float64
}

// Length is the travelled distance of the move. Arcs with equal end points
// are full circles.
func (m Move) Length() float64 {
	if !m.IsArc() {
		return r3.Norm(r3.Sub(m.To, m.From))
	}
	r, _, sweep := m.arc()
	return math.Hypot(r*sweep, m.To.Z-m.From.Z)
}

// IsArc reports whether the move is a G2 or G3.
func (m Move) IsArc() bool {
	return m.Type == MoveArcCW || m.Type == MoveArcCCW
}

// PointAt returns the position a fraction t ∈ [0, 1] along the move.
func (m Move) PointAt(t float64) geom.Point {
	if !m.IsArc() {
		return r3.Add(m.From, r3.Scale(t, r3.Sub(m.To, m.From)))
	}
	r, a0, sweep := m.arc()
	if m.Type == MoveArcCW {
		sweep = -sweep
	}
	a := a0 + t*sweep
	return geom.Point{
		X: m.Center.X + r*math.Cos(a),
		Y: m.Center.Y + r*math.Sin(a),
		Z: m.From.Z + t*(m.To.Z-m.From.Z),
	}
}

// arc returns the radius, start angle and unsigned sweep of an arc move.
func (m Move) arc() (r, a0, sweep float64) {
	r = math.Hypot(m.From.X-m.Center.X, m.From.Y-m.Center.Y)
	a0 = math.Atan2(m.From.Y-m.Center.Y, m.From.X-m.Center.X)
	a1 := math.Atan2(m.To.Y-m.Center.Y, m.To.X-m.Center.X)
	sweep = a1 - a0
	if m.Type == MoveArcCW {
		sweep = -sweep
	}
	for sweep <= 1e-9 {
		sweep += 2 * math.Pi
	}
	return r, a0, sweep
}

var (
	wordRe  = regexp.MustCompile(`([XYZFIJ])\s*([-+]?\d*\.?\d+)`)
	gcodeRe = regexp.MustCompile(`^G0*([0-3])(\D|$)`)
)

// Parse reads program text into absolute moves. Comments in ';' or
// parenthesis form are ignored, as are lines with no G0 to G3 word.
func Parse(code string) []Move {
	var moves []Move
	var cur geom.Point
	var curFeed float64

	for _, line := range strings.Split(code, "\n") {
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		for {
			open := strings.Index(line, "(")
			if open < 0 {
				break
			}
			end := strings.Index(line[open:], ")")
			if end < 0 {
				line = line[:open]
				break
			}
			line = line[:open] + line[open+end+1:]
		}
		line = strings.ToUpper(strings.TrimSpace(line))
		m := gcodeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		g, _ := strconv.Atoi(m[1])

		next, feed := cur, curFeed
		var i, j float64
		for _, w := range wordRe.FindAllStringSubmatch(line[len(m[0])-len(m[2]):], -1) {
			v, err := strconv.ParseFloat(w[2], 64)
			if err != nil {
				continue
			}
			switch w[1] {
			case "X":
				next.X = v
			case "Y":
				next.Y = v
			case "Z":
				next.Z = v
			case "F":
				feed = v
			case "I":
				i = v
			case "J":
				j = v
			}
		}

		mv := Move{From: cur, To: next, Feed: feed}
		switch g {
		case 2, 3:
			mv.Type = MoveArcCW
			if g == 3 {
				mv.Type = MoveArcCCW
			}
			mv.Center = geom.Point{X: cur.X + i, Y: cur.Y + j, Z: cur.Z}
		default:
			mv.Type = classifyMove(g == 0, cur, next)
		}
		moves = append(moves, mv)
		cur, curFeed = next, feed
	}
	return moves
}

// classifyMove determines the MoveType of a straight move.
func classifyMove(isRapid bool, from, to geom.Point) MoveType {
	zDelta := to.Z - from.Z
	hasXY := from.X != to.X || from.Y != to.Y

	switch {
	case zDelta > 0.001 && !hasXY:
		return MoveRetract
	case isRapid:
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		return MovePlunge
	default:
		return MoveFeed
	}
}

// Summary describes a parsed program.
type Summary struct {
	Counts      map[MoveType]int
	Min, Max    geom.Point // Bounds of every move end point
	CutLength   float64    // Distance travelled at feed
	RapidLength float64    // Distance travelled at rapid
	Time        float64    // Estimated minutes, same convention as EstimateTime
}

// Summarize counts moves and measures the travel of a parsed program.
func Summarize(moves []Move) Summary {
	s := Summary{Counts: make(map[MoveType]int)}
	if len(moves) == 0 {
		return s
	}
	s.Min = moves[0].To
	s.Max = moves[0].To
	var t float64
	for _, m := range moves {
		s.Counts[m.Type]++
		s.Min = geom.Point{X: math.Min(s.Min.X, m.To.X), Y: math.Min(s.Min.Y, m.To.Y), Z: math.Min(s.Min.Z, m.To.Z)}
		s.Max = geom.Point{X: math.Max(s.Max.X, m.To.X), Y: math.Max(s.Max.Y, m.To.Y), Z: math.Max(s.Max.Z, m.To.Z)}

		l := m.Length()
		if m.Type == MoveRapid || m.Type == MoveRetract {
			s.RapidLength += l
		} else {
			s.CutLength += l
		}
		if m.Feed > 0 {
			t += l / m.Feed
		}
	}
	s.Time = scalar.Round(t*feedScale, 2)
	return s
}
