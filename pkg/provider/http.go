// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vulntor/regtest/pkg/stringutil"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
	maxResponseBody    = 4 << 20
)

// restClient issues single request/response exchanges against a provider API.
// Every response body is drained and closed before do returns.
type restClient struct {
	http    *http.Client
	baseURL string
	auth    func(*http.Request)
	headers map[string]string
}

func newRESTClient(httpClient *http.Client, baseURL string, auth func(*http.Request)) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &restClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		headers: map[string]string{},
	}
}

type response struct {
	StatusCode int
	Body       []byte
}

func (r response) httpError(op string) *HTTPError {
	return &HTTPError{Op: op, StatusCode: r.StatusCode, Body: stringutil.Ellipsis(string(r.Body), maxErrorBody)}
}

func (c *restClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return response{}, fmt.Errorf("read response body: %w", err)
	}
	return response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *restClient) get(ctx context.Context, path string) (response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

func (c *restClient) postJSON(ctx context.Context, path string, payload any) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

func (c *restClient) postForm(ctx context.Context, path string, form string) (response, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form), "application/x-www-form-urlencoded")
}
