// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/regtest/cmd/regtest/internal/format"
	"github.com/vulntor/regtest/pkg/config"
	"github.com/vulntor/regtest/pkg/provider"
)

// Exit codes returned by the regtest binary.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ErrTestsFailed is returned by the run command when at least one result is
// not a success. The report has already been printed at that point.
var ErrTestsFailed = errors.New("tests failed")

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// ExitCode maps an error returned by the command tree to a process exit code:
//   - 0: success, including runs with no tests
//   - 1: test failures or runtime errors (git, network, provider API)
//   - 2: invalid usage or configuration
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrTestsFailed):
		return ExitFailure
	case errors.Is(err, ErrUsage),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, provider.ErrUnknownProvider),
		errors.Is(err, provider.ErrInvalidConfig):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Execute runs the command tree and returns the process exit code. Errors
// other than ErrTestsFailed are printed to the executed command's stderr;
// failed tests are already described by the report.
func Execute(ctx context.Context, root *cobra.Command) int {
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}
	if !errors.Is(err, ErrTestsFailed) {
		if cmd == nil {
			cmd = root
		}
		_ = format.FromCommand(cmd, format.ModeTable).PrintError(err)
	}
	return ExitCode(err)
}
