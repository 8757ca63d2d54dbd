// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import "time"

// Config is the root configuration of a registry test run.
type Config struct {
	Log      LogConfig      `description:"Logging configuration" koanf:"log"`
	Registry RegistryConfig `description:"Scanner registry checkout" koanf:"registry"`
	Provider ProviderConfig `description:"CI/CD provider" koanf:"provider"`
	Run      RunConfig      `description:"Test execution" koanf:"run"`
}

// LogConfig holds logging related configuration. Logs always go to stderr.
type LogConfig struct {
	Level  string `description:"Log level: debug | info | warn | error" koanf:"level" validate:"required"`
	Format string `description:"Log format: console | json" koanf:"format" validate:"oneof=console json"`
}

// RegistryConfig locates the registry repository and the refs to compare.
type RegistryConfig struct {
	Path    string `description:"Path to the scanner registry checkout" koanf:"path" validate:"required"`
	BaseRef string `description:"Base git reference" koanf:"base_ref" validate:"required"`
	HeadRef string `description:"Head git reference" koanf:"head_ref" validate:"required"`
	// Ref is forwarded to pipelines; empty means the checked out HEAD sha.
	Ref string `description:"Registry commit passed to pipelines" koanf:"ref"`
	// Repo is the owner/repo identity; empty means derived from origin.
	Repo string `description:"Registry owner/repo identity" koanf:"repo"`
}

// ProviderConfig selects the backend. Config is a JSON object whose schema
// depends on Name; it carries credentials and is never logged.
type ProviderConfig struct {
	Name   string `description:"Provider: github | gitlab | azure | bitbucket" koanf:"name" validate:"required,oneof=github gitlab azure bitbucket"`
	Config string `description:"Provider JSON configuration" koanf:"config" validate:"required"`
}

// RunConfig bounds test execution.
type RunConfig struct {
	Concurrency  int           `description:"Maximum tests in flight, 0 for unbounded" koanf:"concurrency" validate:"min=0"`
	Timeout      time.Duration `description:"Per-test completion timeout" koanf:"timeout" validate:"gt=0"`
	PollInterval time.Duration `description:"Delay between status polls" koanf:"poll_interval" validate:"gt=0"`
	Output       string        `description:"Report format: json | table" koanf:"output" validate:"oneof=json table"`
}
