package gcode

import (
	"math"
	"testing"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	if moves := Parse(""); len(moves) != 0 {
		t.Errorf("expected 0 moves for empty input, got %d", len(moves))
	}
}

func TestParse_CommentsOnly(t *testing.T) {
	code := `; This is a comment
(parenthetical comment)
G21
G90`
	if moves := Parse(code); len(moves) != 0 {
		t.Errorf("expected 0 moves, got %d", len(moves))
	}
}

func TestParse_StraightMoves(t *testing.T) {
	code := "G00 X10.00 Y20.00 Z5.00 F20000\nG01 Z-2.00 F300\nG01 X30.00 Y20.00 Z-2.00 F1000\nG00 X30.00 Y20.00 Z5.00\n"
	moves := Parse(code)
	require.Len(t, moves, 4)

	assert.Equal(t, MoveRapid, moves[0].Type)
	assert.Equal(t, geom.Point{X: 10, Y: 20, Z: 5}, moves[0].To)

	assert.Equal(t, MovePlunge, moves[1].Type)
	assert.Equal(t, 300.0, moves[1].Feed)

	assert.Equal(t, MoveFeed, moves[2].Type)
	assert.Equal(t, 1000.0, moves[2].Feed)

	assert.Equal(t, MoveRetract, moves[3].Type)
	assert.Equal(t, 1000.0, moves[3].Feed, "feed is modal")
}

func TestParse_Arcs(t *testing.T) {
	code := "G0 X7 Y5 Z0\nG3 I-2 J0 F800\nG02 X5 Y3 I-2 J0\n"
	moves := Parse(code)
	require.Len(t, moves, 3)

	full := moves[1]
	assert.Equal(t, MoveArcCCW, full.Type)
	assert.Equal(t, geom.Point{X: 5, Y: 5}, full.Center)
	assert.InDelta(t, 4*math.Pi, full.Length(), 1e-9)

	quarter := moves[2]
	assert.Equal(t, MoveArcCW, quarter.Type)
	assert.InDelta(t, math.Pi, quarter.Length(), 1e-9)
}

func TestParse_IgnoresOtherGWords(t *testing.T) {
	moves := Parse("G17\nG28 X0 Y0\nG64 P0.01\nG1 X1")
	require.Len(t, moves, 1)
	assert.Equal(t, 1.0, moves[0].To.X)
}

func TestSummarizeEmittedProgram(t *testing.T) {
	k := geom.NewPlanar(0)
	em := NewEmitter(k, model.DefaultPost(), model.DefaultGeneral())
	lines, samples := em.Program([]*model.Feature{engraveFeature(k)}, nil)

	code := ""
	for _, l := range lines {
		code += l + "\n"
	}
	s := Summarize(Parse(code))

	assert.Equal(t, 1, s.Counts[MoveFeed])
	assert.InDelta(t, 23, s.CutLength, 1e-9, "plunges and the cut")
	assert.Equal(t, geom.Point{X: 0, Y: 0, Z: -1}, s.Min)
	assert.Equal(t, 10.0, s.Max.X)
	assert.Equal(t, 12.0, s.Max.Z)
	assert.InDelta(t, EstimateTime(samples), s.Time, 0.02)
}
