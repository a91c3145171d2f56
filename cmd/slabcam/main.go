// slabcam turns colour-coded drawings into CNC router programs.
//
// Build:
//
//	go build -o slabcam ./cmd/slabcam
//
// Usage:
//
//	slabcam generate panel.dxf --preset "MDF 9mm" --post Grbl --setup-sheet
//	slabcam inspect panel.nc --clamps
//	slabcam posts list
//
// Settings resolve in order: flags, SLABCAM_* environment variables, an
// optional --config file, then ~/.slabcam/config.json.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/project"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries the loaded configuration between commands.
type app struct {
	v       *viper.Viper
	logger  *log.Logger
	cfg     model.AppConfig
	presets []model.Preset
	posts   []model.PostTemplate
}

func (a *app) configDir() string   { return a.v.GetString("config-dir") }
func (a *app) configPath() string  { return filepath.Join(a.configDir(), "config.json") }
func (a *app) presetsPath() string { return filepath.Join(a.configDir(), "presets.json") }
func (a *app) postsPath() string   { return filepath.Join(a.configDir(), "posts.json") }

// load reads the persisted state and layers viper's sources over it.
func (a *app) load() error {
	a.v.SetEnvPrefix("SLABCAM")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}

	a.logger = log.New(io.Discard, "", 0)
	if a.v.GetBool("verbose") {
		a.logger = log.New(os.Stderr, "slabcam: ", 0)
	}

	var err error
	if a.cfg, err = project.LoadAppConfig(a.configPath()); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	if a.presets, err = project.LoadPresets(a.presetsPath()); err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	if a.posts, err = project.LoadPosts(a.postsPath()); err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	a.v.SetDefault("preset", a.cfg.DefaultPreset)
	a.v.SetDefault("post", a.cfg.DefaultPost)
	a.v.SetDefault("out-dir", a.cfg.OutputDir)
	a.v.SetDefault("ext", a.cfg.ProgramExt)
	a.v.SetDefault("setup-sheet", a.cfg.SetupSheet)
	a.v.SetDefault("sorting", a.cfg.Options.Sorting)
	a.v.SetDefault("sort-closest", a.cfg.Options.SortClosest)
	a.v.SetDefault("autocluster", a.cfg.Options.AutoCluster)
	a.v.SetDefault("color-tolerance", a.cfg.Options.ColorTolerance)
	a.v.SetDefault("max-pocket-depth", a.cfg.Options.MaxPocketDepth)
	return nil
}

// bind exposes a command's flags to viper under their own names.
func (a *app) bind(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(f.Name, f)
	})
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "slabcam",
		Short:         "Generate CNC router programs from colour-coded drawings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd.Flags())
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config-dir", project.DefaultConfigDir(), "directory holding config, presets and posts")
	pf.String("config", "", "optional settings file (yaml, toml or json) layered over the app config")
	pf.BoolP("verbose", "v", false, "log planning diagnostics to stderr")

	root.AddCommand(
		newGenerateCmd(a),
		newInspectCmd(a),
		newPostsCmd(a),
		newPresetsCmd(a),
		newConfigCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slabcam:", err)
		os.Exit(1)
	}
}
