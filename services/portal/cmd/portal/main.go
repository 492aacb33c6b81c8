package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"campusportal/services/portal/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "portal",
		Short:        "Campus placement portal backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath, "Path to the YAML configuration file")

	load := func() (config.FileConfig, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the job-alert worker",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return runServe(cmd.Context(), cfg)
			},
		},
		newSnapshotCmd(load),
		&cobra.Command{
			Use:   "seed",
			Short: "Load the demo accounts into an empty store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return runSeed(cmd.Context(), cfg, cmd.OutOrStdout())
			},
		},
	)
	return root
}

func newSnapshotCmd(load func() (config.FileConfig, error)) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the persisted snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Mirror == config.MirrorNone {
				return errors.New("mirror is none; nothing is persisted")
			}
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return runSnapshot(cmd.Context(), cfg, w)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the snapshot to this file instead of stdout")
	return cmd
}
