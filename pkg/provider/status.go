// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import "github.com/vulntor/regtest/pkg/model"

// statusTable maps a provider's terminal vocabulary onto model.Status.
type statusTable map[string]model.Status

// lookup returns the normalized status for s. Unlisted values map to error.
func (t statusTable) lookup(s string) model.Status {
	if st, ok := t[s]; ok {
		return st
	}
	return model.StatusError
}

var githubConclusions = statusTable{
	"success":         model.StatusSuccess,
	"failure":         model.StatusFailure,
	"cancelled":       model.StatusError,
	"timed_out":       model.StatusTimeout,
	"action_required": model.StatusError,
	"neutral":         model.StatusSuccess,
	"skipped":         model.StatusError,
	"stale":           model.StatusError,
}

var gitlabStatuses = statusTable{
	"success":  model.StatusSuccess,
	"failed":   model.StatusFailure,
	"canceled": model.StatusError,
	"skipped":  model.StatusError,
	"manual":   model.StatusError,
}

var azureResults = statusTable{
	"succeeded": model.StatusSuccess,
	"failed":    model.StatusFailure,
	"canceled":  model.StatusError,
	"skipped":   model.StatusError,
}

var bitbucketResults = statusTable{
	"SUCCESSFUL": model.StatusSuccess,
	"FAILED":     model.StatusFailure,
	"ERROR":      model.StatusError,
	"STOPPED":    model.StatusError,
}

// Terminal states per provider.
const githubCompleted = "completed"

var gitlabTerminal = map[string]bool{
	"success":  true,
	"failed":   true,
	"canceled": true,
	"skipped":  true,
	"manual":   true,
}

var azureTerminal = map[string]bool{
	"completed": true,
	"canceling": true,
}

const bitbucketCompleted = "COMPLETED"
