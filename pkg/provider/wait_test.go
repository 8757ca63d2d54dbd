// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vulntor/regtest/pkg/model"
)

// scriptedPoller completes after a fixed number of polls.
type scriptedPoller struct {
	completeAfter int
	err           error
	calls         atomic.Int32
}

func (p *scriptedPoller) PollStatus(_ context.Context, _ RunHandle) (bool, model.TestResult, error) {
	n := int(p.calls.Add(1))
	if p.err != nil {
		return false, model.TestResult{}, p.err
	}
	if p.completeAfter > 0 && n >= p.completeAfter {
		return true, model.TestResult{Provider: "stub", Status: model.StatusSuccess, Duration: 12}, nil
	}
	return false, model.Pending("stub", ""), nil
}

func TestWaitForCompletion_ReturnsFirstTerminalResult(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := &scriptedPoller{completeAfter: 3}
		start := time.Now()

		res, err := WaitForCompletion(t.Context(), p, "42", WaitOptions{Timeout: time.Minute, PollInterval: 10 * time.Second})
		require.NoError(t, err)
		require.Equal(t, model.StatusSuccess, res.Status)
		require.EqualValues(t, 3, p.calls.Load())
		require.Equal(t, 20*time.Second, time.Since(start))
	})
}

func TestWaitForCompletion_TimeoutBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := &scriptedPoller{}
		opts := WaitOptions{Timeout: time.Second, PollInterval: 500 * time.Millisecond}
		start := time.Now()

		_, err := WaitForCompletion(t.Context(), p, "run-7", opts)
		elapsed := time.Since(start)

		require.ErrorIs(t, err, ErrTimeout)
		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		require.Equal(t, RunHandle("run-7"), te.Handle)
		require.Equal(t, time.Second, te.Timeout)
		require.Contains(t, err.Error(), "run-7")
		require.LessOrEqual(t, elapsed, opts.Timeout+opts.PollInterval)
		require.EqualValues(t, 3, p.calls.Load())
	})
}

func TestWaitForCompletion_PropagatesPollError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		boom := statusError(&HTTPError{Op: "get pipeline", StatusCode: 500})
		p := &scriptedPoller{err: boom}

		_, err := WaitForCompletion(t.Context(), p, "1", WaitOptions{})
		require.ErrorIs(t, err, ErrStatus)
		require.False(t, errors.Is(err, ErrTimeout))
		require.EqualValues(t, 1, p.calls.Load())
	})
}

func TestWaitForCompletion_StopsOnCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		p := &scriptedPoller{}

		go func() {
			time.Sleep(45 * time.Second)
			cancel()
		}()

		_, err := WaitForCompletion(ctx, p, "1", WaitOptions{})
		require.ErrorIs(t, err, context.Canceled)
		require.EqualValues(t, 2, p.calls.Load())
	})
}

func TestWaitOptionsDefaults(t *testing.T) {
	o := WaitOptions{}.withDefaults()
	require.Equal(t, 1800*time.Second, o.Timeout)
	require.Equal(t, 30*time.Second, o.PollInterval)
}
