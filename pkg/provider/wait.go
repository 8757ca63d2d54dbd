// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/regtest/pkg/model"
)

const (
	DefaultWaitTimeout  = 1800 * time.Second
	DefaultPollInterval = 30 * time.Second
)

// WaitOptions bounds WaitForCompletion. Zero values select the defaults.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultWaitTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// WaitForCompletion polls handle until it reports a terminal result. The
// elapsed time is checked after every non-terminal poll, so the wait may
// overrun opts.Timeout by at most one poll interval.
//
// Poll errors are returned as-is. Exhausting the bound yields a *TimeoutError.
func WaitForCompletion(ctx context.Context, p Poller, handle RunHandle, opts WaitOptions) (model.TestResult, error) {
	opts = opts.withDefaults()
	start := time.Now()
	polls := 0

	for {
		done, result, err := p.PollStatus(ctx, handle)
		polls++
		if err != nil {
			return model.TestResult{}, err
		}
		if done {
			log.Debug().Str("run_id", handle.String()).Int("polls", polls).Str("status", string(result.Status)).Msg("Run completed")
			return result, nil
		}

		if time.Since(start) >= opts.Timeout {
			return model.TestResult{}, &TimeoutError{Handle: handle, Timeout: opts.Timeout}
		}

		select {
		case <-ctx.Done():
			return model.TestResult{}, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}
