// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vulntor/regtest/pkg/model"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeJSON outputs the report as JSON
	ModeJSON OutputMode = "json"
	// ModeTable outputs one row per result plus a summary line
	ModeTable OutputMode = "table"
)

// Formatter renders run reports. The report always goes to stdout;
// human-oriented messages go to stderr in JSON mode so stdout stays parseable.
type Formatter interface {
	// PrintJSON outputs data as indented JSON to stdout
	PrintJSON(data any) error

	// PrintReport outputs the report in the configured mode
	PrintReport(report model.Report) error

	// PrintSummary outputs a short message (unless quiet mode)
	PrintSummary(message string) error

	// PrintError outputs an error to stderr
	PrintError(err error) error
}

type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New creates a new Formatter
func New(stdout, stderr io.Writer, mode OutputMode, quiet, color bool) Formatter {
	return &formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
		color:  color,
	}
}

func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *formatter) PrintReport(report model.Report) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(report)
	}

	if len(report.Results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(f.stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Scanner", "Test", "Status", "Duration", "Run URL"})
		for _, r := range report.Results {
			t.AppendRow(table.Row{
				r.Scanner,
				r.TestName,
				f.statusLabel(r.Status),
				fmt.Sprintf("%.2fs", r.Duration),
				r.RunURL,
			})
		}
		t.Render()

		if err := f.printMessages(report.Results); err != nil {
			return err
		}
	}

	if f.quiet {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, f.summaryLine(report))
	return err
}

func (f *formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}

	if f.mode == ModeJSON {
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

func (f *formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}

	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "Error: %v\n", err)
	}
	return writeErr
}

// ValidateMode checks if the output mode is valid
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeTable:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'json' or 'table')", mode)
	}
}

// ParseMode converts a string to OutputMode. Unknown values mean JSON, the
// machine-readable default.
func ParseMode(mode string) OutputMode {
	switch strings.ToLower(mode) {
	case "table":
		return ModeTable
	default:
		return ModeJSON
	}
}
