// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package provider adapts CI/CD backends (GitHub Actions, GitLab CI, Azure
// DevOps Pipelines, Bitbucket Pipelines) to a single dispatch/poll contract.
package provider

import (
	"context"

	"github.com/vulntor/regtest/pkg/model"
)

// Names of the supported providers, as accepted by New.
const (
	NameGitHub    = "github"
	NameGitLab    = "gitlab"
	NameAzure     = "azure"
	NameBitbucket = "bitbucket"
)

// RunHandle identifies one dispatched pipeline or workflow run. It is only
// meaningful to the provider that issued it.
type RunHandle string

func (h RunHandle) String() string { return string(h) }

// Poller reports the state of a previously dispatched run.
type Poller interface {
	// PollStatus performs a single status read. While the run is not terminal
	// it returns false and a placeholder result.
	PollStatus(ctx context.Context, handle RunHandle) (bool, model.TestResult, error)
}

// Provider triggers scanner tests on a CI/CD backend and reports their outcome.
type Provider interface {
	Poller

	// Name returns the provider tag stamped onto results.
	Name() string

	// DispatchTest issues exactly one trigger request for test and returns the
	// handle of the run it started.
	DispatchTest(ctx context.Context, scannerID string, test model.Test, registryRef, registryRepo string) (RunHandle, error)
}
