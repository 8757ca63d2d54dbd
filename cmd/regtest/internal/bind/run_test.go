// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package bind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/regtest/cmd/regtest/internal/format"
	"github.com/vulntor/regtest/pkg/config"
)

func validConfig(providerName string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Registry.BaseRef = " origin/main "
	cfg.Registry.HeadRef = "HEAD"
	cfg.Provider.Name = providerName
	cfg.Provider.Config = `{}`
	cfg.Run.Output = "table"
	cfg.Run.Concurrency = 2
	cfg.Run.Timeout = 10 * time.Minute
	return cfg
}

func TestBindRunOptions(t *testing.T) {
	opts, err := BindRunOptions(validConfig("gitlab"), nil)
	require.NoError(t, err)

	assert.Equal(t, ".", opts.RegistryPath)
	assert.Equal(t, "origin/main", opts.BaseRef)
	assert.Equal(t, "HEAD", opts.HeadRef)
	assert.Equal(t, "gitlab", opts.ProviderName)
	assert.Equal(t, 2, opts.Concurrency)
	assert.Equal(t, 10*time.Minute, opts.Wait.Timeout)
	assert.Equal(t, 30*time.Second, opts.Wait.PollInterval)
	assert.Equal(t, format.ModeTable, opts.Output)
	assert.Empty(t, opts.ProviderOpts)
}

func TestBindRunOptions_InvalidConfig(t *testing.T) {
	cfg := validConfig("github")
	cfg.Registry.HeadRef = ""

	_, err := BindRunOptions(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), "registry.head_ref")
}

func TestBindRunOptions_GitHubAPIURL(t *testing.T) {
	env := map[string]string{GitHubAPIURLEnv: "http://localhost:8080"}
	getenv := func(k string) string { return env[k] }

	opts, err := BindRunOptions(validConfig("github"), getenv)
	require.NoError(t, err)
	assert.Len(t, opts.ProviderOpts, 1)

	// Only the GitHub adapter honours the override.
	opts, err = BindRunOptions(validConfig("azure"), getenv)
	require.NoError(t, err)
	assert.Empty(t, opts.ProviderOpts)
}
