package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
)

// ClampHit is the closest approach of the dust shoe to one clamp zone.
type ClampHit struct {
	Clamp     string
	Move      int // Index of the move with the closest approach
	Type      MoveType
	At        geom.Point // Tool center at the closest approach
	Clearance float64    // Gap between shoe edge and clamp, negative = overlap
	Moves     int        // Number of moves that come too close
}

// CheckClamps walks every move of a parsed program and reports the clamp
// zones the dust shoe passes within clearance of. The shoe is a circle of
// diameter shoe centred on the tool; moves are sampled every step mm.
// Each clamp is reported once, at its closest approach.
func CheckClamps(moves []Move, zones []model.ClampZone, shoe, clearance, step float64) []ClampHit {
	if len(zones) == 0 || shoe <= 0 {
		return nil
	}
	if step <= 0 {
		step = 1
	}
	radius := shoe / 2

	hits := make([]*ClampHit, len(zones))
	for i, m := range moves {
		n := int(math.Ceil(m.Length() / step))
		for zi, cz := range zones {
			best, bestAt := math.Inf(1), geom.Point{}
			for s := 0; s <= n; s++ {
				t := 1.0
				if n > 0 {
					t = float64(s) / float64(n)
				}
				p := m.PointAt(t)
				if d := distanceToClampZone(p.X, p.Y, cz); d < best {
					best, bestAt = d, p
				}
			}
			gap := best - radius
			if gap >= clearance {
				continue
			}
			h := hits[zi]
			if h == nil {
				h = &ClampHit{Clamp: cz.Label}
				hits[zi] = h
			} else if gap >= h.Clearance {
				h.Moves++
				continue
			}
			h.Move, h.Type, h.At, h.Clearance = i, m.Type, bestAt, gap
			h.Moves++
		}
	}

	var out []ClampHit
	for _, h := range hits {
		if h != nil {
			out = append(out, *h)
		}
	}
	return out
}

// distanceToClampZone computes the minimum distance from a point (px, py)
// to a clamp zone rectangle. Returns 0 if the point is inside the zone.
func distanceToClampZone(px, py float64, cz model.ClampZone) float64 {
	nearestX := math.Max(cz.X, math.Min(px, cz.X+cz.Width))
	nearestY := math.Max(cz.Y, math.Min(py, cz.Y+cz.Height))
	return math.Hypot(px-nearestX, py-nearestY)
}

// FormatClampWarnings produces human-readable warning messages from clamp hits.
func FormatClampWarnings(hits []ClampHit) []string {
	var warnings []string
	for _, h := range hits {
		warnings = append(warnings, fmt.Sprintf(
			"Dust shoe passes clamp %q during %s move %d at (%.1f, %.1f): clearance %.1f mm (%d moves affected)",
			h.Clamp, h.Type, h.Move+1, h.At.X, h.At.Y, h.Clearance, h.Moves,
		))
	}
	return warnings
}
