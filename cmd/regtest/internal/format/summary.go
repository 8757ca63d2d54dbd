// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/vulntor/regtest/pkg/model"
	"github.com/vulntor/regtest/pkg/stringutil"
)

const maxMessageLength = 200

// statusLabel renders a status with a pass/fail marker.
func (f *formatter) statusLabel(status model.Status) string {
	if status == model.StatusSuccess {
		label := "✓ " + string(status)
		if f.color {
			return color.GreenString(label)
		}
		return label
	}

	label := "✗ " + string(status)
	if !f.color {
		return label
	}
	if status == model.StatusTimeout {
		return color.YellowString(label)
	}
	return color.RedString(label)
}

// summaryLine formats the tallies, e.g.
//
//	Total: 4  Passed: 2  Failed: 1  Errors: 0  Timeouts: 1
func (f *formatter) summaryLine(report model.Report) string {
	line := fmt.Sprintf("Total: %d  Passed: %d  Failed: %d  Errors: %d  Timeouts: %d",
		report.Total, report.Passed, report.Failed, report.Errors, report.Timeouts)
	if !f.color {
		return line
	}
	if report.HasFailures() {
		return color.New(color.FgRed, color.Bold).Sprint(line)
	}
	return color.New(color.FgGreen, color.Bold).Sprint(line)
}

// printMessages lists the messages of unsuccessful results below the table.
func (f *formatter) printMessages(results []model.TestResult) error {
	var sb strings.Builder
	for _, r := range results {
		if r.Status == model.StatusSuccess || r.Message == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("  - %s/%s: %s\n", r.Scanner, r.TestName, stringutil.Ellipsis(r.Message, maxMessageLength)))
	}
	if sb.Len() == 0 {
		return nil
	}
	_, err := fmt.Fprintf(f.stdout, "\nFailures:\n%s\n", sb.String())
	return err
}
