package gcode

import (
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// feedScale converts distance over feed into the reported cycle time.
const feedScale = 0.6

// EstimateTime sums the travel time between consecutive samples, each leg
// taken at the feed of the sample it arrives at. The result is rounded to
// two decimals.
func EstimateTime(samples []Sample) float64 {
	var t float64
	for i := 1; i < len(samples); i++ {
		f := samples[i].Feed
		if f <= 0 {
			continue
		}
		t += r3.Norm(r3.Sub(samples[i].Point, samples[i-1].Point)) / f
	}
	return scalar.Round(t*feedScale, 2)
}
