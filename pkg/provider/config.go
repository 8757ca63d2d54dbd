// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

const (
	DefaultGitHubBaseURL    = "https://api.github.com"
	DefaultGitLabBaseURL    = "https://gitlab.com/api/v4"
	DefaultAzureBaseURL     = "https://dev.azure.com"
	DefaultBitbucketBaseURL = "https://api.bitbucket.org/2.0"

	defaultRef         = "main"
	defaultRunsPerPage = 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GitHubConfig targets one workflow in one repository.
type GitHubConfig struct {
	Token       string `json:"token" validate:"required"`
	Owner       string `json:"owner" validate:"required"`
	Repo        string `json:"repo" validate:"required"`
	WorkflowID  string `json:"workflow_id" validate:"required"`
	Ref         string `json:"ref" validate:"required"`
	BaseURL     string `json:"base_url" validate:"required,url"`
	RunsPerPage int    `json:"runs_per_page" validate:"min=1,max=100"`
}

// GitLabConfig targets one project. When TriggerToken is set, pipelines are
// created through the trigger endpoint instead of the authenticated API.
type GitLabConfig struct {
	Token        string `json:"token" validate:"required"`
	ProjectID    string `json:"project_id" validate:"required"`
	Ref          string `json:"ref" validate:"required"`
	BaseURL      string `json:"base_url" validate:"required,url"`
	TriggerToken string `json:"trigger_token"`
}

// AzureConfig targets one pipeline definition.
type AzureConfig struct {
	Token        string `json:"token" validate:"required"`
	Organization string `json:"organization" validate:"required"`
	Project      string `json:"project" validate:"required"`
	PipelineID   int    `json:"pipeline_id" validate:"required,gt=0"`
	BaseURL      string `json:"base_url" validate:"required,url"`
}

// BitbucketConfig targets one repository's pipelines.
type BitbucketConfig struct {
	Username    string `json:"username" validate:"required"`
	AppPassword string `json:"app_password" validate:"required"`
	Workspace   string `json:"workspace" validate:"required"`
	RepoSlug    string `json:"repo_slug" validate:"required"`
	Ref         string `json:"ref" validate:"required"`
	BaseURL     string `json:"base_url" validate:"required,url"`
}

// rawConfig is a decoded provider configuration object. Numeric ids may be
// given either as JSON numbers or as base-10 strings. String fields are coerced
// with cast.
type rawConfig map[string]any

func parseRawConfig(raw string) (rawConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, configError("empty configuration")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, configError("malformed JSON: %v", err)
	}
	if m == nil {
		return nil, configError("configuration must be a JSON object")
	}
	return rawConfig(m), nil
}

func (c rawConfig) str(key, fallback string) (string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", configError("field %s: %v", key, err)
	}
	return s, nil
}

func (c rawConfig) integer(key string, fallback int) (int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, configError("field %s: %q is not a base-10 integer", key, n)
		}
		return i, nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, configError("field %s: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, configError("field %s: expected integer, got %T", key, v)
	}
}

// fieldReader accumulates the first coercion error so config decoders read
// as a flat list of assignments.
type fieldReader struct {
	raw rawConfig
	err error
}

func (r *fieldReader) str(key, fallback string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.raw.str(key, fallback)
	r.err = err
	return s
}

func (r *fieldReader) integer(key string, fallback int) int {
	if r.err != nil {
		return 0
	}
	n, err := r.raw.integer(key, fallback)
	r.err = err
	return n
}

// ParseGitHubConfig decodes and validates a GitHub provider configuration.
func ParseGitHubConfig(raw string) (GitHubConfig, error) {
	m, err := parseRawConfig(raw)
	if err != nil {
		return GitHubConfig{}, err
	}
	r := &fieldReader{raw: m}
	cfg := GitHubConfig{
		Token:       r.str("token", ""),
		Owner:       r.str("owner", ""),
		Repo:        r.str("repo", ""),
		WorkflowID:  r.str("workflow_id", ""),
		Ref:         r.str("ref", defaultRef),
		BaseURL:     r.str("base_url", DefaultGitHubBaseURL),
		RunsPerPage: r.integer("runs_per_page", defaultRunsPerPage),
	}
	if r.err != nil {
		return GitHubConfig{}, r.err
	}
	return cfg, validateConfig(cfg)
}

// ParseGitLabConfig decodes and validates a GitLab provider configuration.
func ParseGitLabConfig(raw string) (GitLabConfig, error) {
	m, err := parseRawConfig(raw)
	if err != nil {
		return GitLabConfig{}, err
	}
	r := &fieldReader{raw: m}
	cfg := GitLabConfig{
		Token:        r.str("token", ""),
		ProjectID:    r.str("project_id", ""),
		Ref:          r.str("ref", defaultRef),
		BaseURL:      r.str("base_url", DefaultGitLabBaseURL),
		TriggerToken: r.str("trigger_token", ""),
	}
	if r.err != nil {
		return GitLabConfig{}, r.err
	}
	return cfg, validateConfig(cfg)
}

// ParseAzureConfig decodes and validates an Azure DevOps provider configuration.
func ParseAzureConfig(raw string) (AzureConfig, error) {
	m, err := parseRawConfig(raw)
	if err != nil {
		return AzureConfig{}, err
	}
	r := &fieldReader{raw: m}
	cfg := AzureConfig{
		Token:        r.str("token", ""),
		Organization: r.str("organization", ""),
		Project:      r.str("project", ""),
		PipelineID:   r.integer("pipeline_id", 0),
		BaseURL:      r.str("base_url", DefaultAzureBaseURL),
	}
	if r.err != nil {
		return AzureConfig{}, r.err
	}
	return cfg, validateConfig(cfg)
}

// ParseBitbucketConfig decodes and validates a Bitbucket provider configuration.
func ParseBitbucketConfig(raw string) (BitbucketConfig, error) {
	m, err := parseRawConfig(raw)
	if err != nil {
		return BitbucketConfig{}, err
	}
	r := &fieldReader{raw: m}
	cfg := BitbucketConfig{
		Username:    r.str("username", ""),
		AppPassword: r.str("app_password", ""),
		Workspace:   r.str("workspace", ""),
		RepoSlug:    r.str("repo_slug", ""),
		Ref:         r.str("ref", defaultRef),
		BaseURL:     r.str("base_url", DefaultBitbucketBaseURL),
	}
	if r.err != nil {
		return BitbucketConfig{}, r.err
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return configError("%v", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			problems = append(problems, "missing required field "+fe.Field())
			continue
		}
		problems = append(problems, "field "+fe.Field()+" fails "+fe.Tag())
	}
	return configError("%s", strings.Join(problems, "; "))
}
