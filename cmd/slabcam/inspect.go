package main

import (
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <program>",
		Short: "Summarize a G-code program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read program: %w", err)
			}
			moves := gcode.Parse(string(data))
			if len(moves) == 0 {
				return fmt.Errorf("%s contains no moves", args[0])
			}
			out := cmd.OutOrStdout()
			printSummary(out, gcode.Summarize(moves))

			if a.v.GetBool("clamps") {
				step := a.v.GetFloat64("step")
				hits := gcode.CheckClamps(moves, a.cfg.ClampZones, a.cfg.ShoeDiameter, a.cfg.ShoeClearance, step)
				switch {
				case len(a.cfg.ClampZones) == 0:
					fmt.Fprintln(out, "No clamp zones configured")
				case len(hits) == 0:
					fmt.Fprintf(out, "All %d clamp zones clear\n", len(a.cfg.ClampZones))
				default:
					for _, w := range gcode.FormatClampWarnings(hits) {
						fmt.Fprintln(out, w)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("clamps", false, "check the dust shoe against the configured clamp zones")
	cmd.Flags().Float64("step", 1, "sampling step along moves for the clamp check (mm)")
	return cmd
}

func printSummary(w io.Writer, s gcode.Summary) {
	fmt.Fprintln(w, "Moves:")
	for t := gcode.MoveRapid; t <= gcode.MoveArcCCW; t++ {
		if n := s.Counts[t]; n > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", t, n)
		}
	}
	fmt.Fprintf(w, "Bounds:   X %.3f..%.3f  Y %.3f..%.3f  Z %.3f..%.3f\n",
		s.Min.X, s.Max.X, s.Min.Y, s.Max.Y, s.Min.Z, s.Max.Z)
	fmt.Fprintf(w, "Cutting:  %.1f mm\n", s.CutLength)
	fmt.Fprintf(w, "Rapids:   %.1f mm\n", s.RapidLength)
	fmt.Fprintf(w, "Time:     %.2f min\n", s.Time)
}
