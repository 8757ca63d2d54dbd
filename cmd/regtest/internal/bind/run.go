// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package bind turns the merged configuration into validated options for the
// run command.
package bind

import (
	"fmt"
	"strings"

	"github.com/vulntor/regtest/cmd/regtest/internal/format"
	"github.com/vulntor/regtest/pkg/config"
	"github.com/vulntor/regtest/pkg/provider"
)

// GitHubAPIURLEnv overrides the GitHub REST base URL when set.
const GitHubAPIURLEnv = "GITHUB_API_URL"

// RunOptions holds everything the run command needs.
type RunOptions struct {
	RegistryPath string
	BaseRef      string
	HeadRef      string
	RegistryRef  string
	RegistryRepo string

	ProviderName   string
	ProviderConfig string
	ProviderOpts   []provider.Option

	Concurrency int
	Wait        provider.WaitOptions
	Output      format.OutputMode
}

// BindRunOptions validates cfg and builds RunOptions. getenv is consulted
// for provider-specific overrides; nil disables them.
func BindRunOptions(cfg config.Config, getenv func(string) string) (RunOptions, error) {
	if err := config.Validate(cfg); err != nil {
		return RunOptions{}, err
	}
	if err := format.ValidateMode(cfg.Run.Output); err != nil {
		return RunOptions{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	opts := RunOptions{
		RegistryPath:   cfg.Registry.Path,
		BaseRef:        strings.TrimSpace(cfg.Registry.BaseRef),
		HeadRef:        strings.TrimSpace(cfg.Registry.HeadRef),
		RegistryRef:    strings.TrimSpace(cfg.Registry.Ref),
		RegistryRepo:   strings.TrimSpace(cfg.Registry.Repo),
		ProviderName:   cfg.Provider.Name,
		ProviderConfig: cfg.Provider.Config,
		Concurrency:    cfg.Run.Concurrency,
		Wait: provider.WaitOptions{
			Timeout:      cfg.Run.Timeout,
			PollInterval: cfg.Run.PollInterval,
		},
		Output: format.ParseMode(cfg.Run.Output),
	}

	if getenv != nil && opts.ProviderName == provider.NameGitHub {
		if u := strings.TrimSpace(getenv(GitHubAPIURLEnv)); u != "" {
			opts.ProviderOpts = append(opts.ProviderOpts, provider.WithBaseURL(u))
		}
	}

	return opts, nil
}
