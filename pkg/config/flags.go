// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import "github.com/spf13/pflag"

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"log-level":       "log.level",
	"log-format":      "log.format",
	"registry-path":   "registry.path",
	"base-ref":        "registry.base_ref",
	"head-ref":        "registry.head_ref",
	"registry-ref":    "registry.ref",
	"registry-repo":   "registry.repo",
	"provider":        "provider.name",
	"provider-config": "provider.config",
	"concurrency":     "run.concurrency",
	"timeout":         "run.timeout",
	"poll-interval":   "run.poll_interval",
	"output":          "run.output",
}

// BindLogFlags defines the logging flags shared by every command.
func BindLogFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String("log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "Log format (console, json)")
	flags.Bool("debug", false, "Enable debug logging")
}

// BindRunFlags defines the flags of a registry test run.
func BindRunFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String("registry-path", defaults.Registry.Path, "Path to the scanner registry repository")
	flags.String("base-ref", "", "Base git reference (e.g. origin/main)")
	flags.String("head-ref", "", "Head git reference (e.g. HEAD)")
	flags.String("registry-ref", "", "Registry commit passed to pipelines (default: HEAD sha)")
	flags.String("registry-repo", "", "Registry owner/repo (default: derived from origin remote)")
	flags.String("provider", "", "Provider type (github, gitlab, azure, bitbucket)")
	flags.String("provider-config", "", "JSON configuration for the provider")
	flags.Int("concurrency", defaults.Run.Concurrency, "Maximum tests in flight (0 = unbounded)")
	flags.Duration("timeout", defaults.Run.Timeout, "Per-test completion timeout")
	flags.Duration("poll-interval", defaults.Run.PollInterval, "Delay between status polls")
	flags.StringP("output", "o", defaults.Run.Output, "Report format (json, table)")
}
