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
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vulntor/regtest/pkg/model"
)

// GitLab creates GitLab CI pipelines in one project.
type GitLab struct {
	cfg    GitLabConfig
	client *restClient
	logger zerolog.Logger
}

// NewGitLab returns a GitLab adapter for cfg.
func NewGitLab(cfg GitLabConfig, opts ...Option) *GitLab {
	o := newOptions(opts)
	token := cfg.Token
	client := newRESTClient(o.httpClient, resolveBaseURL(o, cfg.BaseURL), func(r *http.Request) {
		r.Header.Set("PRIVATE-TOKEN", token)
	})
	return &GitLab{cfg: cfg, client: client, logger: providerLogger(NameGitLab)}
}

func (g *GitLab) Name() string { return NameGitLab }

func (g *GitLab) projectPath() string {
	return "/projects/" + url.PathEscape(g.cfg.ProjectID)
}

type gitlabPipelineRequest struct {
	Ref       string     `json:"ref"`
	Variables []variable `json:"variables"`
}

type gitlabPipeline struct {
	ID         optional[int64]   `json:"id"`
	Status     optional[string]  `json:"status"`
	WebURL     optional[string]  `json:"web_url"`
	StartedAt  optional[string]  `json:"started_at"`
	FinishedAt optional[string]  `json:"finished_at"`
	Duration   optional[float64] `json:"duration"`
}

func (g *GitLab) DispatchTest(ctx context.Context, scannerID string, test model.Test, registryRef, registryRepo string) (RunHandle, error) {
	vars, err := dispatchVariables(scannerID, test, registryRef, registryRepo)
	if err != nil {
		return "", dispatchError(err)
	}

	var resp response
	if g.cfg.TriggerToken != "" {
		form := url.Values{}
		form.Set("token", g.cfg.TriggerToken)
		form.Set("ref", g.cfg.Ref)
		for _, v := range vars {
			form.Set("variables["+v.Key+"]", v.Value)
		}
		resp, err = g.client.postForm(ctx, g.projectPath()+"/trigger/pipeline", form.Encode())
	} else {
		resp, err = g.client.postJSON(ctx, g.projectPath()+"/pipeline", gitlabPipelineRequest{
			Ref:       g.cfg.Ref,
			Variables: vars,
		})
	}
	if err != nil {
		return "", dispatchError(err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", dispatchError(resp.httpError("create pipeline"))
	}

	var pipeline gitlabPipeline
	if err := json.Unmarshal(resp.Body, &pipeline); err != nil || !pipeline.ID.Valid {
		return "", dispatchError(fmt.Errorf("pipeline id not found in response"))
	}

	handle := RunHandle(strconv.FormatInt(pipeline.ID.Value, 10))
	g.logger.Info().Str("scanner", scannerID).Str("test", test.Name).Str("run_id", handle.String()).Msg("Pipeline created")
	return handle, nil
}

func (g *GitLab) PollStatus(ctx context.Context, handle RunHandle) (bool, model.TestResult, error) {
	resp, err := g.client.get(ctx, g.projectPath()+"/pipelines/"+url.PathEscape(handle.String()))
	if err != nil {
		return false, model.TestResult{}, statusError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, model.TestResult{}, statusError(resp.httpError("get pipeline"))
	}

	var pipeline gitlabPipeline
	if err := json.Unmarshal(resp.Body, &pipeline); err != nil {
		return false, model.TestResult{}, statusError(fmt.Errorf("decode pipeline: %w", err))
	}

	status := pipeline.Status.Or("")
	result := model.Pending(NameGitLab, pipeline.WebURL.Or(""))
	if !gitlabTerminal[status] {
		return false, result, nil
	}

	result.Status = gitlabStatuses.lookup(status)
	result.Duration = elapsedSeconds(pipeline.StartedAt, pipeline.FinishedAt)
	if result.Duration == 0 && pipeline.Duration.Value > 0 {
		result.Duration = pipeline.Duration.Value
	}
	return true, result, nil
}
