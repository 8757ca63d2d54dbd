// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package logging

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: " WARN ", want: zerolog.WarnLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigure(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer

	require.NoError(t, Configure(&buf, "warn", FormatJSON))
	log.Info().Msg("hidden")
	log.Warn().Str("scanner", "a/b").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"scanner":"a/b"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.Error(t, Configure(io.Discard, "info", "xml"))
	require.Error(t, Configure(io.Discard, "nope", FormatConsole))
}

func TestConfigure_Console(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer

	require.NoError(t, Configure(&buf, "debug", FormatConsole))
	log.Debug().Msg("console line")

	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestComponent(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer
	require.NoError(t, Configure(&buf, "info", FormatJSON))

	logger := Component("orchestrator")
	logger.Debug().Msg("below level")
	logger.Info().Msg("dispatching")

	assert.Contains(t, buf.String(), `"component":"orchestrator"`)
	assert.Contains(t, buf.String(), "dispatching")
	assert.NotContains(t, buf.String(), "below level")
}

func TestComponent_ConcurrentWriters(t *testing.T) {
	resetGlobal(t)
	var buf bytes.Buffer
	require.NoError(t, Configure(&buf, "info", FormatJSON))

	var wg sync.WaitGroup
	for _, name := range []string{"provider", "registry", "orchestrator", "cli"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger := Component(name)
			for range 50 {
				logger.Info().Msg("tick")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, bytes.Count(buf.Bytes(), []byte("\n")))
}
