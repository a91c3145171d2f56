package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/piwi3910/slabcam/internal/engine"
	"github.com/piwi3910/slabcam/internal/export"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/importer"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/project"
	"github.com/spf13/cobra"
)

const maxRecentFiles = 10

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <drawing>",
		Short: "Plan toolpaths for a drawing and write the program",
		Long: `Reads a DXF drawing, JSON geometry document or CSV/XLSX drill table,
turns its shapes into machining features by colour and writes the program.

  red closed      outside cut
  blue closed     inside cut
  magenta closed  pocket
  green           engrave
  points          drill (white point = program zero)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.generate(ctx, cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.StringP("preset", "p", "", "machining preset name")
	f.String("post", "", "post template name")
	f.StringP("out-dir", "o", "", "output directory (default: next to the drawing)")
	f.String("ext", "", "program file extension (default .nc)")
	f.Bool("setup-sheet", false, "also write a PDF setup sheet")
	f.Bool("sorting", true, "order features by start point")
	f.Bool("sort-closest", false, "order features as a nearest-neighbour tour")
	f.Bool("autocluster", true, "machine features inside an outside cut before the cut itself")
	f.Int("color-tolerance", 0, "per-channel colour slack when classifying shapes")
	f.Int("max-pocket-depth", 0, "offset pocket nesting limit (0 = derived from the shape)")
	f.Float64("chain-tolerance", 0.01, "join DXF lines and arcs whose ends lie this close")
	return cmd
}

func (a *app) generate(ctx context.Context, cmd *cobra.Command, input string) error {
	preset, err := project.ResolvePreset(a.v.GetString("preset"), a.presets)
	if err != nil {
		return err
	}
	post, err := project.ResolvePost(a.v.GetString("post"), a.posts)
	if err != nil {
		return err
	}

	var opts model.JobOptions
	a.cfg.ApplyTo(&opts)
	opts.Sorting = a.v.GetBool("sorting")
	opts.SortClosest = a.v.GetBool("sort-closest")
	opts.AutoCluster = a.v.GetBool("autocluster")
	opts.ColorTolerance = a.v.GetInt("color-tolerance")
	opts.MaxPocketDepth = a.v.GetInt("max-pocket-depth")

	k := geom.NewPlanar(preset.General.Tolerance)

	var imp importer.ImportResult
	if strings.EqualFold(filepath.Ext(input), ".dxf") {
		imp = importer.ImportDXF(input, k, importer.DXFOptions{ChainTolerance: a.v.GetFloat64("chain-tolerance")})
	} else {
		imp = importer.Import(input, k)
	}
	defer imp.Release(k)

	stderr := cmd.ErrOrStderr()
	for _, w := range imp.Warnings {
		fmt.Fprintln(stderr, "warning:", w)
	}
	if len(imp.Errors) > 0 {
		return fmt.Errorf("import %s: %s", filepath.Base(input), strings.Join(imp.Errors, "; "))
	}

	st := &engine.State{
		Kernel:  k,
		Preset:  preset,
		Post:    post,
		Options: opts,
		Logger:  a.logger,
		Progress: func(done, total int) {
			a.logger.Printf("planned %d/%d", done, total)
		},
	}
	res, err := engine.Run(ctx, st, imp.Shapes)
	if err != nil {
		return fmt.Errorf("generate %s: %w", filepath.Base(input), err)
	}
	defer res.Release(k)

	ext := a.v.GetString("ext")
	if ext == "" {
		ext = export.DefaultProgramExt
	}
	outDir := a.v.GetString("out-dir")
	programPath := export.OutputPath(input, outDir, ext)
	if err := export.WriteProgram(programPath, res.Program); err != nil {
		return err
	}

	moves := gcode.Parse(strings.Join(res.Program, "\n"))
	summary := gcode.Summarize(moves)
	hits := gcode.CheckClamps(moves, a.cfg.ClampZones, a.cfg.ShoeDiameter, a.cfg.ShoeClearance, preset.General.Tolerance)
	for _, w := range gcode.FormatClampWarnings(hits) {
		fmt.Fprintln(stderr, "warning:", w)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s: %d features, %d skipped shapes, cycle time %.2f min\n",
		programPath, len(res.Features), res.Skipped, res.CycleTime)

	if a.v.GetBool("setup-sheet") {
		sheetPath := export.OutputPath(input, outDir, ".pdf")
		err := export.ExportSetupSheet(sheetPath, export.SetupSheet{
			JobID:     uuid.New().String()[:8],
			Source:    filepath.Base(input),
			Program:   filepath.Base(programPath),
			Preset:    preset,
			Post:      post,
			Features:  res.Features,
			Zero:      res.Zero,
			CycleTime: res.CycleTime,
			Summary:   summary,
		})
		if err != nil {
			return fmt.Errorf("setup sheet: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", sheetPath)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}
	project.AddRecentFile(&a.cfg, abs, maxRecentFiles)
	if err := project.SaveAppConfig(a.configPath(), a.cfg); err != nil {
		a.logger.Printf("save recent files: %v", err)
	}
	return nil
}
