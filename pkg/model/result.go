// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package model

// Status is the normalized terminal outcome of a test run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Unknown is used for result fields the producer cannot know.
const Unknown = "unknown"

// IsFailure reports whether s counts against the overall run.
func (s Status) IsFailure() bool {
	return s != StatusSuccess
}

// TestResult is produced once per (scanner, test) pair.
type TestResult struct {
	Provider string  `json:"provider"`
	Scanner  string  `json:"scanner"`
	TestName string  `json:"test_name"`
	Status   Status  `json:"status"`
	Duration float64 `json:"duration"`
	Message  string  `json:"message,omitempty"`
	RunURL   string  `json:"run_url"`
}

// Pending returns the placeholder result adapters report while a run is
// still in a non-terminal state.
func Pending(provider, runURL string) TestResult {
	return TestResult{
		Provider: provider,
		Scanner:  Unknown,
		TestName: Unknown,
		Status:   StatusError,
		RunURL:   runURL,
	}
}

// Report is the aggregated view rendered by the CLI.
type Report struct {
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Errors   int          `json:"errors"`
	Timeouts int          `json:"timeouts"`
	Results  []TestResult `json:"results"`
}

// NewReport tallies results by status.
func NewReport(results []TestResult) Report {
	r := Report{
		Total:   len(results),
		Results: results,
	}
	if r.Results == nil {
		r.Results = []TestResult{}
	}
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			r.Passed++
		case StatusFailure:
			r.Failed++
		case StatusError:
			r.Errors++
		case StatusTimeout:
			r.Timeouts++
		}
	}
	return r
}

// HasFailures reports whether any result is not a success.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status.IsFailure() {
			return true
		}
	}
	return false
}
