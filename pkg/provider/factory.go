// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vulntor/regtest/pkg/logging"
)

// Option customizes provider construction.
type Option func(*options)

type options struct {
	httpClient  *http.Client
	baseURL     string
	now         func() time.Time
	correlation correlationTiming
}

// correlationTiming controls how the GitHub adapter searches for the run it
// has just dispatched.
type correlationTiming struct {
	InitialDelay time.Duration
	RetryDelay   time.Duration
	Attempts     int
	Window       time.Duration
}

var defaultCorrelation = correlationTiming{
	InitialDelay: 5 * time.Second,
	RetryDelay:   2 * time.Second,
	Attempts:     10,
	Window:       60 * time.Second,
}

func newOptions(opts []Option) options {
	o := options{
		now:         time.Now,
		correlation: defaultCorrelation,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient sets the HTTP client used for every API call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBaseURL overrides the API base URL from the provider configuration.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimSpace(u) }
}

// WithClock replaces the wall clock used for GitHub run correlation.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCorrelation tunes the GitHub run search. Non-positive attempts keep the
// default of 10.
func WithCorrelation(initialDelay, retryDelay time.Duration, attempts int) Option {
	return func(o *options) {
		o.correlation.InitialDelay = initialDelay
		o.correlation.RetryDelay = retryDelay
		if attempts > 0 {
			o.correlation.Attempts = attempts
		}
	}
}

// Names lists the accepted provider names.
func Names() []string {
	return []string{NameGitHub, NameGitLab, NameAzure, NameBitbucket}
}

// New builds the provider registered under name from its JSON configuration.
// Configuration problems are reported as ErrUnknownProvider or
// ErrInvalidConfig before any network call is made.
func New(name, rawConfig string, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameGitHub:
		cfg, err := ParseGitHubConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		return NewGitHub(cfg, opts...), nil
	case NameGitLab:
		cfg, err := ParseGitLabConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		return NewGitLab(cfg, opts...), nil
	case NameAzure:
		cfg, err := ParseAzureConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		return NewAzure(cfg, opts...), nil
	case NameBitbucket:
		cfg, err := ParseBitbucketConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		return NewBitbucket(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, name, strings.Join(Names(), ", "))
	}
}

func resolveBaseURL(o options, configured string) string {
	if o.baseURL != "" {
		return o.baseURL
	}
	return configured
}

func providerLogger(name string) zerolog.Logger {
	return logging.Component("provider").With().Str("provider", name).Logger()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
