// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidConfig indicates malformed or incomplete provider configuration.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrDispatch indicates the backend rejected or mis-answered a trigger request.
	ErrDispatch = errors.New("dispatch failed")

	// ErrStatus indicates a status read could not be completed.
	ErrStatus = errors.New("status check failed")

	// ErrRunNotFound indicates a dispatched GitHub run could not be located.
	ErrRunNotFound = errors.New("could not correlate run")

	// ErrTimeout is matched by TimeoutError.
	ErrTimeout = errors.New("timed out waiting for run")
)

// HTTPError describes an unexpected response status from a provider API.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TimeoutError is returned by WaitForCompletion when a run does not reach a
// terminal state within the configured bound.
type TimeoutError struct {
	Handle  RunHandle
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run %s did not complete within %s", e.Handle, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func dispatchError(err error) error {
	return fmt.Errorf("%w: %w", ErrDispatch, err)
}

func statusError(err error) error {
	return fmt.Errorf("%w: %w", ErrStatus, err)
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
