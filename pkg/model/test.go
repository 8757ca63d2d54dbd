// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package model holds the data shared between manifest loading, provider
// adapters, the orchestrator and the CLI report.
package model

// TestType is the kind of target a scanner test runs against.
type TestType string

const (
	TestTypeSourceCode  TestType = "source-code"
	TestTypeDockerImage TestType = "docker-image"
)

// DefaultTestTimeout is applied when a manifest test omits its timeout.
const DefaultTestTimeout = "5m"

// TestSource describes what the remote pipeline checks out for a test.
type TestSource struct {
	URL string `yaml:"url" json:"url" validate:"required"`
	Ref string `yaml:"ref" json:"ref" validate:"required"`
}

// Test is one declared test case inside a scanner manifest.
type Test struct {
	Name        string           `yaml:"name" json:"name" validate:"required"`
	Type        TestType         `yaml:"type" json:"type" validate:"required,oneof=source-code docker-image"`
	Source      TestSource       `yaml:"source" json:"source"`
	ScanPaths   []string         `yaml:"scan_paths" json:"scan_paths"`
	ScanConfigs []map[string]any `yaml:"scan_configs" json:"scan_configs,omitempty"`
	// Timeout is forwarded to the remote pipeline as a hint; it is not
	// enforced locally.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// WithDefaults returns a copy of t with unset optional fields filled in.
func (t Test) WithDefaults() Test {
	if t.ScanPaths == nil {
		t.ScanPaths = []string{}
	}
	if t.Timeout == "" {
		t.Timeout = DefaultTestTimeout
	}
	return t
}

// TestDefinition is the parsed content of one scanner's tests.yaml.
type TestDefinition struct {
	Version string `yaml:"version" json:"version" validate:"required"`
	Tests   []Test `yaml:"tests" json:"tests" validate:"dive"`
}

// WithDefaults applies Test.WithDefaults to every test.
func (d TestDefinition) WithDefaults() TestDefinition {
	tests := make([]Test, 0, len(d.Tests))
	for _, t := range d.Tests {
		tests = append(tests, t.WithDefaults())
	}
	d.Tests = tests
	return d
}
