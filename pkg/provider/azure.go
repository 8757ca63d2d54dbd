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

const azureAPIVersion = "7.1"

// Azure runs Azure DevOps pipelines, passing test variables as template
// parameters.
type Azure struct {
	cfg    AzureConfig
	client *restClient
	logger zerolog.Logger
}

// NewAzure returns an Azure DevOps adapter for cfg. The personal access token
// is sent as the password of HTTP basic authentication.
func NewAzure(cfg AzureConfig, opts ...Option) *Azure {
	o := newOptions(opts)
	token := cfg.Token
	client := newRESTClient(o.httpClient, resolveBaseURL(o, cfg.BaseURL), func(r *http.Request) {
		r.SetBasicAuth("", token)
	})
	return &Azure{cfg: cfg, client: client, logger: providerLogger(NameAzure)}
}

func (a *Azure) Name() string { return NameAzure }

func (a *Azure) runsPath() string {
	return fmt.Sprintf("/%s/%s/_apis/pipelines/%d/runs",
		url.PathEscape(a.cfg.Organization), url.PathEscape(a.cfg.Project), a.cfg.PipelineID)
}

type azureRunRequest struct {
	TemplateParameters map[string]string `json:"templateParameters"`
}

type azureRun struct {
	ID           optional[int64]  `json:"id"`
	State        optional[string] `json:"state"`
	Result       optional[string] `json:"result"`
	CreatedDate  optional[string] `json:"createdDate"`
	FinishedDate optional[string] `json:"finishedDate"`
	Links        optional[struct {
		Web optional[href] `json:"web"`
	}] `json:"_links"`
}

func (r azureRun) webURL() string {
	if !r.Links.Valid || !r.Links.Value.Web.Valid {
		return ""
	}
	return r.Links.Value.Web.Value.Href.Or("")
}

func (a *Azure) DispatchTest(ctx context.Context, scannerID string, test model.Test, registryRef, registryRepo string) (RunHandle, error) {
	vars, err := dispatchVariables(scannerID, test, registryRef, registryRepo)
	if err != nil {
		return "", dispatchError(err)
	}

	resp, err := a.client.postJSON(ctx, a.runsPath()+"?api-version="+azureAPIVersion, azureRunRequest{
		TemplateParameters: variableMap(vars, false),
	})
	if err != nil {
		return "", dispatchError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", dispatchError(resp.httpError("run pipeline"))
	}

	var run azureRun
	if err := json.Unmarshal(resp.Body, &run); err != nil || !run.ID.Valid {
		return "", dispatchError(fmt.Errorf("run id not found in response"))
	}

	handle := RunHandle(strconv.FormatInt(run.ID.Value, 10))
	a.logger.Info().Str("scanner", scannerID).Str("test", test.Name).Str("run_id", handle.String()).Msg("Pipeline run started")
	return handle, nil
}

func (a *Azure) PollStatus(ctx context.Context, handle RunHandle) (bool, model.TestResult, error) {
	resp, err := a.client.get(ctx, a.runsPath()+"/"+url.PathEscape(handle.String())+"?api-version="+azureAPIVersion)
	if err != nil {
		return false, model.TestResult{}, statusError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, model.TestResult{}, statusError(resp.httpError("get pipeline run"))
	}

	var run azureRun
	if err := json.Unmarshal(resp.Body, &run); err != nil {
		return false, model.TestResult{}, statusError(fmt.Errorf("decode pipeline run: %w", err))
	}

	result := model.Pending(NameAzure, run.webURL())
	if !azureTerminal[run.State.Or("")] {
		return false, result, nil
	}

	result.Status = azureResults.lookup(run.Result.Or(""))
	result.Duration = elapsedSeconds(run.CreatedDate, run.FinishedDate)
	return true, result, nil
}
