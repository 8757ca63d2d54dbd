// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package orchestrator runs every test declared by the changed scanners of a
// registry against one provider and collects one result per test.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/regtest/pkg/logging"
	"github.com/vulntor/regtest/pkg/model"
	"github.com/vulntor/regtest/pkg/provider"
)

// ChangeDetector lists the scanners touched between two registry refs.
type ChangeDetector interface {
	DetectChangedScanners(ctx context.Context, registryPath, baseRef, headRef string) ([]string, error)
}

// DefinitionLoader loads test manifests. Scanners whose manifest cannot be
// loaded are absent from the returned map.
type DefinitionLoader interface {
	LoadAllTests(ctx context.Context, registryPath string, scannerIDs []string) (map[string]model.TestDefinition, error)
}

// Orchestrator fans tests out to a provider and gathers their results.
type Orchestrator struct {
	provider     provider.Provider
	detector     ChangeDetector
	loader       DefinitionLoader
	registryRepo string
	concurrency  int
	wait         provider.WaitOptions
	logger       zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistryRepo sets the owner/repo identity forwarded to every dispatch.
func WithRegistryRepo(repo string) Option {
	return func(o *Orchestrator) { o.registryRepo = repo }
}

// WithConcurrency caps the number of tests in flight. Zero or less means no cap.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithWaitOptions sets the completion bound used for every run.
func WithWaitOptions(w provider.WaitOptions) Option {
	return func(o *Orchestrator) { o.wait = w }
}

// New returns an Orchestrator running tests on p.
func New(p provider.Provider, d ChangeDetector, l DefinitionLoader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: p,
		detector: d,
		loader:   l,
		logger:   logging.Component("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunTests detects changed scanners between baseRef and headRef, runs each of
// their declared tests and returns one result per test in completion order.
//
// A failing test never affects its siblings: dispatch, poll and timeout
// errors are reported as results. Only detection and loading failures are
// returned as errors.
func (o *Orchestrator) RunTests(ctx context.Context, registryPath, baseRef, headRef, registryRef string) ([]model.TestResult, error) {
	logger := o.logger.With().Str("orchestration_id", uuid.NewString()).Logger()

	scannerIDs, err := o.detector.DetectChangedScanners(ctx, registryPath, baseRef, headRef)
	if err != nil {
		return nil, fmt.Errorf("detect changed scanners: %w", err)
	}
	if len(scannerIDs) == 0 {
		logger.Info().Msg("No changed scanners")
		return []model.TestResult{}, nil
	}
	logger.Info().Strs("scanners", scannerIDs).Msg("Changed scanners detected")

	definitions, err := o.loader.LoadAllTests(ctx, registryPath, scannerIDs)
	if err != nil {
		return nil, fmt.Errorf("load test definitions: %w", err)
	}

	tasks := buildTasks(scannerIDs, definitions)
	if len(tasks) == 0 {
		logger.Info().Msg("No tests declared for changed scanners")
		return []model.TestResult{}, nil
	}

	logger.Info().Int("tests", len(tasks)).Str("provider", o.provider.Name()).Msg("Dispatching tests")
	results := o.execute(ctx, logger, tasks, registryRef)
	logger.Info().Int("results", len(results)).Msg("All tests finished")
	return results, nil
}

func (o *Orchestrator) execute(ctx context.Context, logger zerolog.Logger, tasks []*task, registryRef string) []model.TestResult {
	limit := o.concurrency
	if limit <= 0 {
		limit = -1
	}

	var (
		mu      sync.Mutex
		results = make([]model.TestResult, 0, len(tasks))
		g       errgroup.Group
	)
	g.SetLimit(limit)

	for _, t := range tasks {
		g.Go(func() error {
			res := o.runTask(ctx, logger, t, registryRef)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runTask drives one test through dispatch and completion. It always returns
// a result; errors and panics are folded into it.
func (o *Orchestrator) runTask(ctx context.Context, logger zerolog.Logger, t *task, registryRef string) (res model.TestResult) {
	logger = logger.With().Str("scanner", t.scannerID).Str("test", t.test.Name).Logger()
	t.startTime = time.Now()

	defer func() {
		if r := recover(); r != nil {
			t.state = StateErrored
			res = o.errorResult(t, fmt.Errorf("panic: %v", r))
		}
		t.endTime = time.Now()
		logger.Info().
			Str("state", t.state.String()).
			Str("status", string(res.Status)).
			Dur("elapsed", t.endTime.Sub(t.startTime)).
			Msg("Test finished")
	}()

	handle, err := o.provider.DispatchTest(ctx, t.scannerID, t.test, registryRef, o.registryRepo)
	if err != nil {
		t.state = StateErrored
		logger.Warn().Err(err).Msg("Dispatch failed")
		return o.errorResult(t, err)
	}
	t.state = StateDispatched
	t.handle = handle
	logger.Debug().Str("run_id", handle.String()).Msg("Waiting for run")

	res, err = provider.WaitForCompletion(ctx, o.provider, handle, o.wait)
	if err != nil {
		if errors.Is(err, provider.ErrTimeout) {
			t.state = StateTimedOut
		} else {
			t.state = StateErrored
		}
		logger.Warn().Err(err).Str("run_id", handle.String()).Msg("Run did not complete")
		return o.errorResult(t, err)
	}

	t.state = StateCompleted
	res.Scanner = t.scannerID
	res.TestName = t.test.Name
	if res.Provider == "" {
		res.Provider = o.provider.Name()
	}
	return res
}

// errorResult converts a task failure into a result. Timeouts keep their own
// status so they stay distinguishable from other errors.
func (o *Orchestrator) errorResult(t *task, err error) model.TestResult {
	status := model.StatusError
	if errors.Is(err, provider.ErrTimeout) {
		status = model.StatusTimeout
	}
	return model.TestResult{
		Provider: o.provider.Name(),
		Scanner:  t.scannerID,
		TestName: t.test.Name,
		Status:   status,
		Message:  err.Error(),
	}
}
