// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/regtest/pkg/appctx"
	"github.com/vulntor/regtest/pkg/config"
	"github.com/vulntor/regtest/pkg/logging"
)

const cliExecutable = "regtest"

// NewCommand constructs the top-level regtest CLI command. Configuration is
// loaded and logging configured before any subcommand runs.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Run scanner registry tests on a CI/CD provider",
		Long: `regtest detects scanners changed between two git refs of a scanner registry,
dispatches every declared test to a CI/CD provider, waits for the pipelines
to finish and reports the aggregated results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")

			mgr := config.NewManager()
			if err := mgr.LoadWithSources(config.DefaultSources(configFile, cmd.Flags(), debug)); err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalid, err)
			}

			cfg := mgr.Get()
			if err := logging.Configure(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalid, err)
			}
			log.Debug().Str("config_file", configFile).Msg("Configuration loaded")

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (YAML)")
	config.BindLogFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(fmt.Errorf("%s accepts no arguments, got %q", cmd.CommandPath(), args))
	}
	return nil
}
