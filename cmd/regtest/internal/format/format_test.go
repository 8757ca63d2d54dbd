// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/regtest/pkg/model"
)

func sampleReport() model.Report {
	return model.NewReport([]model.TestResult{
		{Provider: "github", Scanner: "org/a", TestName: "smoke", Status: model.StatusSuccess, Duration: 12.5, RunURL: "https://ci/1"},
		{Provider: "github", Scanner: "org/b", TestName: "image", Status: model.StatusTimeout, Message: "run did not finish"},
	})
}

func TestPrintReport_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)

	require.NoError(t, f.PrintReport(sampleReport()))
	assert.Empty(t, stderr.String())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["total"])
	assert.EqualValues(t, 1, decoded["passed"])
	assert.EqualValues(t, 1, decoded["timeouts"])
	assert.Len(t, decoded["results"], 2)
}

func TestPrintReport_Table(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeTable, false, false)

	require.NoError(t, f.PrintReport(sampleReport()))
	out := stdout.String()

	assert.Contains(t, out, "SCANNER")
	assert.Contains(t, out, "org/a")
	assert.Contains(t, out, "✓ success")
	assert.Contains(t, out, "✗ timeout")
	assert.Contains(t, out, "12.50s")
	assert.Contains(t, out, "org/b/image: run did not finish")
	assert.Contains(t, out, "Total: 2  Passed: 1  Failed: 0  Errors: 0  Timeouts: 1")
	assert.Empty(t, stderr.String())
}

func TestPrintReport_TableEmpty(t *testing.T) {
	var stdout bytes.Buffer
	f := New(&stdout, &bytes.Buffer{}, ModeTable, false, false)

	require.NoError(t, f.PrintReport(model.NewReport(nil)))
	assert.Equal(t, "Total: 0  Passed: 0  Failed: 0  Errors: 0  Timeouts: 0\n", stdout.String())
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name       string
		mode       OutputMode
		quiet      bool
		wantStdout string
		wantStderr string
	}{
		{name: "table to stdout", mode: ModeTable, wantStdout: "No tests to run\n"},
		{name: "json to stderr", mode: ModeJSON, wantStderr: "No tests to run\n"},
		{name: "quiet", mode: ModeTable, quiet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			f := New(&stdout, &stderr, tt.mode, tt.quiet, false)

			require.NoError(t, f.PrintSummary("No tests to run"))
			assert.Equal(t, tt.wantStdout, stdout.String())
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func TestPrintError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)

	require.NoError(t, f.PrintError(nil))
	require.NoError(t, f.PrintError(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", stderr.String())
	assert.Empty(t, stdout.String())
}

func TestParseAndValidateMode(t *testing.T) {
	assert.Equal(t, ModeTable, ParseMode("TABLE"))
	assert.Equal(t, ModeJSON, ParseMode("json"))
	assert.Equal(t, ModeJSON, ParseMode("yaml"))

	require.NoError(t, ValidateMode("json"))
	require.NoError(t, ValidateMode("table"))
	require.Error(t, ValidateMode("yaml"))
}

func TestFromCommand(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().Bool("no-color", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--quiet", "--no-color"}))

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	f := FromCommand(cmd, ModeTable)
	impl, ok := f.(*formatter)
	require.True(t, ok)
	assert.True(t, impl.quiet)
	assert.False(t, impl.color)
	assert.Equal(t, ModeTable, impl.mode)

	require.NoError(t, f.PrintSummary("hidden"))
	assert.False(t, strings.Contains(stdout.String(), "hidden"))
}
