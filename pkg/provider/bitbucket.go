// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vulntor/regtest/pkg/model"
)

// Bitbucket triggers Bitbucket Pipelines on a branch of one repository.
// Handles are pipeline uuids without the surrounding braces.
type Bitbucket struct {
	cfg    BitbucketConfig
	client *restClient
	logger zerolog.Logger
}

// NewBitbucket returns a Bitbucket adapter for cfg.
func NewBitbucket(cfg BitbucketConfig, opts ...Option) *Bitbucket {
	o := newOptions(opts)
	user, password := cfg.Username, cfg.AppPassword
	client := newRESTClient(o.httpClient, resolveBaseURL(o, cfg.BaseURL), func(r *http.Request) {
		r.SetBasicAuth(user, password)
	})
	return &Bitbucket{cfg: cfg, client: client, logger: providerLogger(NameBitbucket)}
}

func (b *Bitbucket) Name() string { return NameBitbucket }

func (b *Bitbucket) pipelinesPath() string {
	return fmt.Sprintf("/repositories/%s/%s/pipelines/", url.PathEscape(b.cfg.Workspace), url.PathEscape(b.cfg.RepoSlug))
}

type bitbucketTarget struct {
	RefType string `json:"ref_type"`
	Type    string `json:"type"`
	RefName string `json:"ref_name"`
}

type bitbucketPipelineRequest struct {
	Target    bitbucketTarget `json:"target"`
	Variables []variable      `json:"variables"`
}

type bitbucketState struct {
	Name   optional[string] `json:"name"`
	Result optional[struct {
		Name optional[string] `json:"name"`
	}] `json:"result"`
}

type bitbucketPipeline struct {
	UUID              optional[string]         `json:"uuid"`
	State             optional[bitbucketState] `json:"state"`
	CreatedOn         optional[string]         `json:"created_on"`
	CompletedOn       optional[string]         `json:"completed_on"`
	DurationInSeconds optional[float64]        `json:"duration_in_seconds"`
	Links             optional[struct {
		HTML optional[href] `json:"html"`
	}] `json:"links"`
}

func (p bitbucketPipeline) webURL() string {
	if !p.Links.Valid || !p.Links.Value.HTML.Valid {
		return ""
	}
	return p.Links.Value.HTML.Value.Href.Or("")
}

func (p bitbucketPipeline) resultName() string {
	if !p.State.Valid || !p.State.Value.Result.Valid {
		return ""
	}
	return p.State.Value.Result.Value.Name.Or("")
}

func (b *Bitbucket) DispatchTest(ctx context.Context, scannerID string, test model.Test, registryRef, registryRepo string) (RunHandle, error) {
	vars, err := dispatchVariables(scannerID, test, registryRef, registryRepo)
	if err != nil {
		return "", dispatchError(err)
	}

	resp, err := b.client.postJSON(ctx, b.pipelinesPath(), bitbucketPipelineRequest{
		Target: bitbucketTarget{
			RefType: "branch",
			Type:    "pipeline_ref_target",
			RefName: b.cfg.Ref,
		},
		Variables: vars,
	})
	if err != nil {
		return "", dispatchError(err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", dispatchError(resp.httpError("trigger pipeline"))
	}

	var pipeline bitbucketPipeline
	if err := json.Unmarshal(resp.Body, &pipeline); err != nil || !pipeline.UUID.Valid {
		return "", dispatchError(fmt.Errorf("pipeline uuid not found in response"))
	}

	handle := RunHandle(strings.Trim(pipeline.UUID.Value, "{}"))
	b.logger.Info().Str("scanner", scannerID).Str("test", test.Name).Str("run_id", handle.String()).Msg("Pipeline triggered")
	return handle, nil
}

func (b *Bitbucket) PollStatus(ctx context.Context, handle RunHandle) (bool, model.TestResult, error) {
	id := "{" + strings.Trim(handle.String(), "{}") + "}"
	resp, err := b.client.get(ctx, b.pipelinesPath()+url.PathEscape(id))
	if err != nil {
		return false, model.TestResult{}, statusError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, model.TestResult{}, statusError(resp.httpError("get pipeline"))
	}

	var pipeline bitbucketPipeline
	if err := json.Unmarshal(resp.Body, &pipeline); err != nil {
		return false, model.TestResult{}, statusError(fmt.Errorf("decode pipeline: %w", err))
	}

	result := model.Pending(NameBitbucket, pipeline.webURL())
	if !pipeline.State.Valid || pipeline.State.Value.Name.Or("") != bitbucketCompleted {
		return false, result, nil
	}

	result.Status = bitbucketResults.lookup(pipeline.resultName())
	result.Duration = elapsedSeconds(pipeline.CreatedOn, pipeline.CompletedOn)
	if result.Duration == 0 && pipeline.DurationInSeconds.Value > 0 {
		result.Duration = pipeline.DurationInSeconds.Value
	}
	return true, result, nil
}
