package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/project"
	"github.com/spf13/cobra"
)

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, show and import post templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in and custom post templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tDESCRIPTION")
			for _, p := range model.Posts {
				fmt.Fprintf(tw, "%s\tbuilt-in\t%s\n", p.Name, p.Description)
			}
			for _, p := range a.posts {
				fmt.Fprintf(tw, "%s\tcustom\t%s\n", p.Name, p.Description)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a post template as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ResolvePost(args[0], a.posts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a post template to a file for sharing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ResolvePost(args[0], a.posts)
			if err != nil {
				return err
			}
			return project.ExportPost(args[1], p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Add or replace a custom post template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ImportPost(args[0])
			if err != nil {
				return err
			}
			a.posts = project.UpsertPost(a.posts, p)
			if err := project.SavePosts(a.postsPath(), a.posts); err != nil {
				return fmt.Errorf("save posts: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported post %q\n", p.Name)
			return nil
		},
	})
	return cmd
}

func newPresetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List and show machining presets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in and custom presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tTOOL\tDESCRIPTION")
			for _, p := range model.Presets {
				fmt.Fprintf(tw, "%s\tbuilt-in\t%.3f\t%s\n", p.Name, p.General.CutDiam, p.Description)
			}
			for _, p := range a.presets {
				fmt.Fprintf(tw, "%s\tcustom\t%.3f\t%s\n", p.Name, p.General.CutDiam, p.Description)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ResolvePreset(args[0], a.presets)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	})
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, back up and restore settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the app config as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), a.cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Back up config, custom presets and custom posts to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := project.ExportAllData(args[0], a.cfg, a.presets, a.posts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Restore a backup, replacing the current settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(a.configPath(), data.Config); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			if err := project.SavePresets(a.presetsPath(), data.Presets); err != nil {
				return fmt.Errorf("save presets: %w", err)
			}
			if err := project.SavePosts(a.postsPath(), data.Posts); err != nil {
				return fmt.Errorf("save posts: %w", err)
			}
			a.cfg, a.presets, a.posts = data.Config, data.Presets, data.Posts
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d presets and %d posts\n", len(data.Presets), len(data.Posts))
			return nil
		},
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
