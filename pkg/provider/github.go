// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vulntor/regtest/pkg/model"
)

// GitHub dispatches tests as workflow_dispatch runs of a GitHub Actions
// workflow.
//
// The dispatch endpoint does not return the id of the run it creates, so
// DispatchTest searches the workflow's recent runs for a non-completed run
// created close to the dispatch time. Matching is best effort: a run
// triggered by someone else inside the same window can be picked up instead.
// Runs already handed out by this adapter are never returned twice.
type GitHub struct {
	cfg    GitHubConfig
	client *restClient
	claims *claimSet
	now    func() time.Time
	timing correlationTiming
	logger zerolog.Logger
}

// NewGitHub returns a GitHub adapter for cfg.
func NewGitHub(cfg GitHubConfig, opts ...Option) *GitHub {
	o := newOptions(opts)
	token := cfg.Token
	client := newRESTClient(o.httpClient, resolveBaseURL(o, cfg.BaseURL), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	client.headers["Accept"] = "application/vnd.github+json"
	client.headers["X-GitHub-Api-Version"] = "2022-11-28"

	if cfg.RunsPerPage <= 0 {
		cfg.RunsPerPage = defaultRunsPerPage
	}
	return &GitHub{
		cfg:    cfg,
		client: client,
		claims: newClaimSet(),
		now:    o.now,
		timing: o.correlation,
		logger: providerLogger(NameGitHub),
	}
}

func (g *GitHub) Name() string { return NameGitHub }

func (g *GitHub) repoPath() string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(g.cfg.Owner), url.PathEscape(g.cfg.Repo))
}

func (g *GitHub) workflowPath() string {
	return g.repoPath() + "/actions/workflows/" + url.PathEscape(g.cfg.WorkflowID)
}

type githubDispatchRequest struct {
	Ref    string            `json:"ref"`
	Inputs map[string]string `json:"inputs"`
}

// githubRun is the subset of a workflow run object the adapter reads.
type githubRun struct {
	ID           optional[int64]  `json:"id"`
	Status       optional[string] `json:"status"`
	Conclusion   optional[string] `json:"conclusion"`
	HTMLURL      optional[string] `json:"html_url"`
	CreatedAt    optional[string] `json:"created_at"`
	RunStartedAt optional[string] `json:"run_started_at"`
	UpdatedAt    optional[string] `json:"updated_at"`
}

type githubRunList struct {
	WorkflowRuns optional[[]json.RawMessage] `json:"workflow_runs"`
}

func (g *GitHub) DispatchTest(ctx context.Context, scannerID string, test model.Test, registryRef, registryRepo string) (RunHandle, error) {
	vars, err := dispatchVariables(scannerID, test, registryRef, registryRepo)
	if err != nil {
		return "", dispatchError(err)
	}
	correlationID := uuid.NewString()
	logger := g.logger.With().
		Str("scanner", scannerID).
		Str("test", test.Name).
		Str("correlation_id", correlationID).
		Logger()

	dispatchedAt := g.now()
	resp, err := g.client.postJSON(ctx, g.workflowPath()+"/dispatches", githubDispatchRequest{
		Ref:    g.cfg.Ref,
		Inputs: variableMap(vars, true),
	})
	if err != nil {
		return "", dispatchError(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		return "", dispatchError(resp.httpError("dispatch workflow"))
	}
	logger.Debug().Time("dispatched_at", dispatchedAt).Msg("Workflow dispatched, searching for run")

	if err := sleep(ctx, g.timing.InitialDelay); err != nil {
		return "", dispatchError(err)
	}

	handle, err := g.findRun(ctx, dispatchedAt)
	if err != nil {
		return "", err
	}
	logger.Info().Str("run_id", handle.String()).Msg("Workflow run dispatched")
	return handle, nil
}

func (g *GitHub) findRun(ctx context.Context, dispatchedAt time.Time) (RunHandle, error) {
	for attempt := 1; attempt <= g.timing.Attempts; attempt++ {
		runs, err := g.listRuns(ctx)
		if err != nil {
			return "", dispatchError(err)
		}
		if id, ok := g.claims.claimFirst(rankCandidates(runs, dispatchedAt, g.timing.Window)); ok {
			return RunHandle(id), nil
		}
		if attempt < g.timing.Attempts {
			if err := sleep(ctx, g.timing.RetryDelay); err != nil {
				return "", dispatchError(err)
			}
		}
	}
	return "", fmt.Errorf("%w: %w after %d attempts", ErrDispatch, ErrRunNotFound, g.timing.Attempts)
}

func (g *GitHub) listRuns(ctx context.Context) ([]githubRun, error) {
	query := url.Values{}
	query.Set("event", "workflow_dispatch")
	query.Set("per_page", strconv.Itoa(g.cfg.RunsPerPage))

	resp, err := g.client.get(ctx, g.workflowPath()+"/runs?"+query.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.httpError("list workflow runs")
	}

	var list githubRunList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("decode workflow runs: %w", err)
	}
	raw := list.WorkflowRuns.Or(nil)
	runs := make([]githubRun, 0, len(raw))
	for _, item := range raw {
		var run githubRun
		if err := json.Unmarshal(item, &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// rankCandidates returns ids of runs that are not completed and were created
// strictly within window of dispatchedAt, closest first.
func rankCandidates(runs []githubRun, dispatchedAt time.Time, window time.Duration) []string {
	type candidate struct {
		id    int64
		delta time.Duration
	}
	var candidates []candidate
	for _, run := range runs {
		if !run.ID.Valid || run.Status.Or("") == githubCompleted {
			continue
		}
		created, ok := parseTimestamp(run.CreatedAt.Or(""))
		if !ok {
			continue
		}
		delta := created.Sub(dispatchedAt).Abs()
		if delta >= window {
			continue
		}
		candidates = append(candidates, candidate{id: run.ID.Value, delta: delta})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(a.delta, b.delta)
	})

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, strconv.FormatInt(c.id, 10))
	}
	return ids
}

func (g *GitHub) PollStatus(ctx context.Context, handle RunHandle) (bool, model.TestResult, error) {
	resp, err := g.client.get(ctx, g.repoPath()+"/actions/runs/"+url.PathEscape(handle.String()))
	if err != nil {
		return false, model.TestResult{}, statusError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, model.TestResult{}, statusError(resp.httpError("get workflow run"))
	}

	var run githubRun
	if err := json.Unmarshal(resp.Body, &run); err != nil {
		return false, model.TestResult{}, statusError(fmt.Errorf("decode workflow run: %w", err))
	}

	result := model.Pending(NameGitHub, run.HTMLURL.Or(""))
	if run.Status.Or("") != githubCompleted {
		return false, result, nil
	}

	start := run.RunStartedAt
	if !start.Valid {
		start = run.CreatedAt
	}
	result.Status = githubConclusions.lookup(run.Conclusion.Or(""))
	result.Duration = elapsedSeconds(start, run.UpdatedAt)
	return true, result, nil
}
