// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vulntor/regtest/cmd/regtest/internal/bind"
	"github.com/vulntor/regtest/cmd/regtest/internal/format"
	"github.com/vulntor/regtest/pkg/appctx"
	"github.com/vulntor/regtest/pkg/config"
	"github.com/vulntor/regtest/pkg/logging"
	"github.com/vulntor/regtest/pkg/model"
	"github.com/vulntor/regtest/pkg/orchestrator"
	"github.com/vulntor/regtest/pkg/provider"
	"github.com/vulntor/regtest/pkg/registry"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tests of scanners changed between two refs",
		Example: `  regtest run --base-ref origin/main --head-ref HEAD \
    --provider github --provider-config "$PROVIDER_CONFIG"`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := bind.BindRunOptions(appctx.Config(cmd.Context()), os.Getenv)
			if err != nil {
				return err
			}
			return runTests(cmd.Context(), format.FromCommand(cmd, opts.Output), opts)
		},
	}

	config.BindRunFlags(cmd.Flags())
	cmd.Flags().BoolP("quiet", "q", false, "Suppress the summary line")
	cmd.Flags().Bool("no-color", false, "Disable colored table output")

	return cmd
}

func runTests(ctx context.Context, f format.Formatter, opts bind.RunOptions) error {
	logger := logging.Component("cli")
	logger.Info().
		Str("registry_path", opts.RegistryPath).
		Str("base_ref", opts.BaseRef).
		Str("head_ref", opts.HeadRef).
		Str("provider", opts.ProviderName).
		Msg("Scanner registry test run starting")

	p, err := provider.New(opts.ProviderName, opts.ProviderConfig, opts.ProviderOpts...)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	registryRef := opts.RegistryRef
	if registryRef == "" {
		registryRef, err = registry.HeadCommit(opts.RegistryPath)
		if err != nil {
			return fmt.Errorf("resolve registry commit: %w", err)
		}
	}
	logger.Info().Str("registry_ref", registryRef).Msg("Registry commit resolved")

	registryRepo := opts.RegistryRepo
	if registryRepo == "" {
		registryRepo, err = registry.RepositoryIdentity(opts.RegistryPath)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not derive registry repository identity, pipelines receive an empty REGISTRY_REPO")
		}
	}

	orch := orchestrator.New(p, registry.NewDetector(), registry.NewLoader(),
		orchestrator.WithRegistryRepo(registryRepo),
		orchestrator.WithConcurrency(opts.Concurrency),
		orchestrator.WithWaitOptions(opts.Wait),
	)

	results, err := orch.RunTests(ctx, opts.RegistryPath, opts.BaseRef, opts.HeadRef, registryRef)
	if err != nil {
		return fmt.Errorf("run tests: %w", err)
	}

	report := model.NewReport(results)
	if report.Total == 0 {
		if err := f.PrintSummary("No tests to run"); err != nil {
			return err
		}
		if opts.Output == format.ModeJSON {
			return f.PrintJSON(report)
		}
		return nil
	}

	logResults(logger, results)
	if err := f.PrintReport(report); err != nil {
		return err
	}

	if report.HasFailures() {
		failed := report.Failed + report.Errors + report.Timeouts
		logger.Error().Int("failed", failed).Int("total", report.Total).Msg("Tests failed")
		return fmt.Errorf("%w: %d/%d", ErrTestsFailed, failed, report.Total)
	}
	return nil
}

func logResults(logger zerolog.Logger, results []model.TestResult) {
	for _, r := range results {
		if r.Status == model.StatusSuccess {
			logger.Info().Str("scanner", r.Scanner).Str("test", r.TestName).
				Float64("duration", r.Duration).Str("run_url", r.RunURL).Msg("Test passed")
			continue
		}
		logger.Error().Str("scanner", r.Scanner).Str("test", r.TestName).
			Str("status", string(r.Status)).Str("message", r.Message).Str("run_url", r.RunURL).Msg("Test did not pass")
	}
}
