// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/regtest/pkg/model"
)

var dispatchedAt = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func ts(offset time.Duration) string {
	return dispatchedAt.Add(offset).Format(time.RFC3339)
}

type githubFake struct {
	t            *testing.T
	dispatchCode int
	runs         []any
	run          map[string]any
	runCode      int

	dispatches atomic.Int32
	lists      atomic.Int32
	mu         sync.Mutex
	lastBody   map[string]any
}

func (f *githubFake) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/runner/actions/workflows/registry-test.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		f.dispatches.Add(1)
		assert.Equal(f.t, "Bearer ghp_test", r.Header.Get("Authorization"))
		assert.Equal(f.t, "application/vnd.github+json", r.Header.Get("Accept"))
		var body map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()
		code := f.dispatchCode
		if code == 0 {
			code = http.StatusNoContent
		}
		w.WriteHeader(code)
		if code != http.StatusNoContent {
			_, _ = w.Write([]byte(`{"message":"Unexpected inputs provided"}`))
		}
	})
	mux.HandleFunc("GET /repos/acme/runner/actions/workflows/registry-test.yml/runs", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		assert.Equal(f.t, "workflow_dispatch", r.URL.Query().Get("event"))
		assert.Equal(f.t, "20", r.URL.Query().Get("per_page"))
		_ = json.NewEncoder(w).Encode(map[string]any{"total_count": len(f.runs), "workflow_runs": f.runs})
	})
	mux.HandleFunc("GET /repos/acme/runner/actions/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if f.runCode != 0 {
			w.WriteHeader(f.runCode)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.run)
	})
	return mux
}

func newGitHubFixture(t *testing.T, f *githubFake) *GitHub {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg, err := ParseGitHubConfig(fmt.Sprintf(`{"token":"ghp_test","owner":"acme","repo":"runner","workflow_id":"registry-test.yml","base_url":%q}`, srv.URL))
	require.NoError(t, err)
	return NewGitHub(cfg,
		WithClock(func() time.Time { return dispatchedAt }),
		WithCorrelation(0, 0, 3),
	)
}

func TestGitHubDispatch_PicksClosestUnclaimedRun(t *testing.T) {
	f := &githubFake{runs: []any{
		"garbage",
		map[string]any{"id": 1, "status": "completed", "created_at": ts(time.Second)},
		map[string]any{"id": 2, "status": "queued", "created_at": ts(-60 * time.Second)},
		map[string]any{"id": 3, "status": "queued", "created_at": ts(20 * time.Second)},
		map[string]any{"id": 4, "status": "in_progress", "created_at": ts(3 * time.Second)},
		map[string]any{"id": 5, "status": "queued", "created_at": "not-a-time"},
	}}
	g := newGitHubFixture(t, f)

	handle, err := g.DispatchTest(t.Context(), "org/scanner", sampleTest(), "abc123", "org/registry")
	require.NoError(t, err)
	require.Equal(t, RunHandle("4"), handle)
	require.True(t, g.claims.isClaimed("4"))

	require.Equal(t, "main", f.lastBody["ref"])
	inputs, ok := f.lastBody["inputs"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "org/scanner", inputs["scanner_id"])
	require.Equal(t, "smoke", inputs["test_name"])
	require.Equal(t, "org/registry", inputs["registry_repo"])
	require.Equal(t, `["src","lib"]`, inputs["scan_paths"])
	require.NotContains(t, inputs, "scan_configs")

	// The closest run is now claimed, so the next dispatch gets the other one.
	handle, err = g.DispatchTest(t.Context(), "org/scanner", sampleTest(), "abc123", "org/registry")
	require.NoError(t, err)
	require.Equal(t, RunHandle("3"), handle)
}

func TestGitHubDispatch_ConcurrentDispatchesClaimDistinctRuns(t *testing.T) {
	f := &githubFake{runs: []any{
		map[string]any{"id": 101, "status": "queued", "created_at": ts(time.Second)},
		map[string]any{"id": 102, "status": "queued", "created_at": ts(2 * time.Second)},
	}}
	g := newGitHubFixture(t, f)
	t.Cleanup(g.claims.reset)

	const workers = 2
	handles := make([]RunHandle, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = g.DispatchTest(t.Context(), "org/scanner", sampleTest(), "abc123", "org/registry")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NotEqual(t, handles[0], handles[1])
	require.ElementsMatch(t, []RunHandle{"101", "102"}, handles)
}

func TestGitHubDispatch_NoCorrelatedRun(t *testing.T) {
	f := &githubFake{runs: []any{
		map[string]any{"id": 9, "status": "completed", "created_at": ts(0)},
		map[string]any{"id": 10, "status": "queued", "created_at": ts(-5 * time.Minute)},
	}}
	g := newGitHubFixture(t, f)

	_, err := g.DispatchTest(t.Context(), "org/scanner", sampleTest(), "abc123", "org/registry")
	require.ErrorIs(t, err, ErrDispatch)
	require.ErrorIs(t, err, ErrRunNotFound)
	require.Contains(t, err.Error(), "could not correlate run")
	require.EqualValues(t, 3, f.lists.Load())
}

func TestGitHubDispatch_RejectedStatus(t *testing.T) {
	f := &githubFake{dispatchCode: http.StatusUnprocessableEntity}
	g := newGitHubFixture(t, f)

	_, err := g.DispatchTest(t.Context(), "org/scanner", sampleTest(), "abc123", "org/registry")
	require.ErrorIs(t, err, ErrDispatch)
	require.Contains(t, err.Error(), "422")
	require.Zero(t, f.lists.Load())

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
}

func TestGitHubPoll(t *testing.T) {
	tests := []struct {
		name     string
		run      map[string]any
		done     bool
		status   model.Status
		duration float64
		url      string
	}{
		{
			name: "in progress",
			run:  map[string]any{"id": 4, "status": "in_progress", "html_url": "https://github.com/acme/runner/actions/runs/4"},
			done: false, status: model.StatusError, url: "https://github.com/acme/runner/actions/runs/4",
		},
		{
			name: "success",
			run: map[string]any{
				"id": 4, "status": "completed", "conclusion": "success",
				"html_url":       "https://github.com/acme/runner/actions/runs/4",
				"created_at":     ts(0),
				"run_started_at": ts(10 * time.Second),
				"updated_at":     ts(100 * time.Second),
			},
			done: true, status: model.StatusSuccess, duration: 90, url: "https://github.com/acme/runner/actions/runs/4",
		},
		{
			name: "timed out falls back to created_at",
			run: map[string]any{
				"id": 4, "status": "completed", "conclusion": "timed_out",
				"created_at": ts(0), "updated_at": ts(30 * time.Second),
			},
			done: true, status: model.StatusTimeout, duration: 30,
		},
		{
			name: "null conclusion and malformed url",
			run:  map[string]any{"id": 4, "status": "completed", "conclusion": nil, "html_url": 17},
			done: true, status: model.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGitHubFixture(t, &githubFake{run: tt.run})
			done, res, err := g.PollStatus(t.Context(), "4")
			require.NoError(t, err)
			require.Equal(t, tt.done, done)
			require.Equal(t, tt.status, res.Status)
			require.Equal(t, NameGitHub, res.Provider)
			require.InDelta(t, tt.duration, res.Duration, 1e-9)
			require.Equal(t, tt.url, res.RunURL)
		})
	}
}

func TestGitHubPoll_HTTPError(t *testing.T) {
	g := newGitHubFixture(t, &githubFake{runCode: http.StatusNotFound})
	_, _, err := g.PollStatus(t.Context(), "4")
	require.ErrorIs(t, err, ErrStatus)
	require.True(t, strings.Contains(err.Error(), "404"))
}

func TestRankCandidates_WindowIsStrict(t *testing.T) {
	window := 60 * time.Second
	runs := []githubRun{
		{ID: optional[int64]{Value: 1, Valid: true}, Status: optional[string]{Value: "queued", Valid: true}, CreatedAt: optional[string]{Value: ts(-window), Valid: true}},
		{ID: optional[int64]{Value: 2, Valid: true}, Status: optional[string]{Value: "queued", Valid: true}, CreatedAt: optional[string]{Value: ts(59 * time.Second), Valid: true}},
		{ID: optional[int64]{Value: 3, Valid: true}, Status: optional[string]{Value: "queued", Valid: true}, CreatedAt: optional[string]{Value: ts(-2 * time.Second), Valid: true}},
		{Status: optional[string]{Value: "queued", Valid: true}, CreatedAt: optional[string]{Value: ts(0), Valid: true}},
	}
	require.Equal(t, []string{"3", "2"}, rankCandidates(runs, dispatchedAt, window))
}

func TestClaimSet(t *testing.T) {
	c := newClaimSet()

	id, ok := c.claimFirst([]string{"3", "1"})
	require.True(t, ok)
	require.Equal(t, "3", id)

	id, ok = c.claimFirst([]string{"3", "1"})
	require.True(t, ok)
	require.Equal(t, "1", id)

	_, ok = c.claimFirst([]string{"3", "1"})
	require.False(t, ok)

	c.reset()
	require.False(t, c.isClaimed("3"))
	id, ok = c.claimFirst([]string{"3"})
	require.True(t, ok)
	require.Equal(t, "3", id)
}
