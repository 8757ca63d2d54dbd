// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   any
	}{
		{"github", `{"token":"t","owner":"o","repo":"r","workflow_id":"test.yml"}`, &GitHub{}},
		{"GitLab", `{"token":"t","project_id":1234}`, &GitLab{}},
		{"azure", `{"token":"t","organization":"org","project":"p","pipeline_id":"7"}`, &Azure{}},
		{" bitbucket ", `{"username":"u","app_password":"p","workspace":"w","repo_slug":"r"}`, &Bitbucket{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name, tt.config)
			require.NoError(t, err)
			require.IsType(t, tt.want, p)
		})
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		config   string
		is       error
		contains string
	}{
		{"unknown provider", "jenkins", `{}`, ErrUnknownProvider, "jenkins"},
		{"malformed json", "github", `{"token":`, ErrInvalidConfig, "malformed JSON"},
		{"not an object", "github", `[1,2]`, ErrInvalidConfig, "malformed JSON"},
		{"empty", "gitlab", ``, ErrInvalidConfig, "empty"},
		{"missing field", "github", `{"token":"t","owner":"o","repo":"r"}`, ErrInvalidConfig, "workflow_id"},
		{"bad pipeline id", "azure", `{"token":"t","organization":"o","project":"p","pipeline_id":"abc"}`, ErrInvalidConfig, "pipeline_id"},
		{"fractional pipeline id", "azure", `{"token":"t","organization":"o","project":"p","pipeline_id":1.5}`, ErrInvalidConfig, "pipeline_id"},
		{"boolean pipeline id", "azure", `{"token":"t","organization":"o","project":"p","pipeline_id":true}`, ErrInvalidConfig, "pipeline_id"},
		{"fractional runs per page", "github", `{"token":"t","owner":"o","repo":"r","workflow_id":"w.yml","runs_per_page":"2.5"}`, ErrInvalidConfig, "runs_per_page"},
		{"zero pipeline id", "azure", `{"token":"t","organization":"o","project":"p"}`, ErrInvalidConfig, "pipeline_id"},
		{"bad base url", "bitbucket", `{"username":"u","app_password":"p","workspace":"w","repo_slug":"r","base_url":"not a url"}`, ErrInvalidConfig, "base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.provider, tt.config)
			require.Nil(t, p)
			require.ErrorIs(t, err, tt.is)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseConfigDefaults(t *testing.T) {
	gh, err := ParseGitHubConfig(`{"token":"t","owner":"o","repo":"r","workflow_id":"w.yml"}`)
	require.NoError(t, err)
	require.Equal(t, "main", gh.Ref)
	require.Equal(t, DefaultGitHubBaseURL, gh.BaseURL)
	require.Equal(t, 20, gh.RunsPerPage)

	gl, err := ParseGitLabConfig(`{"token":"t","project_id":"group/project","ref":"develop"}`)
	require.NoError(t, err)
	require.Equal(t, "develop", gl.Ref)
	require.Equal(t, "group/project", gl.ProjectID)
	require.Equal(t, DefaultGitLabBaseURL, gl.BaseURL)
	require.Empty(t, gl.TriggerToken)

	az, err := ParseAzureConfig(`{"token":"t","organization":"o","project":"p","pipeline_id":12}`)
	require.NoError(t, err)
	require.Equal(t, 12, az.PipelineID)
	require.Equal(t, DefaultAzureBaseURL, az.BaseURL)

	bb, err := ParseBitbucketConfig(`{"username":"u","app_password":"p","workspace":"w","repo_slug":"r"}`)
	require.NoError(t, err)
	require.Equal(t, "main", bb.Ref)
	require.Equal(t, DefaultBitbucketBaseURL, bb.BaseURL)
}

func TestParseAzureConfig_PipelineID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"number", `7`, 7},
		{"integral float", `7.0`, 7},
		{"string", `"15"`, 15},
		{"padded string", `" 15 "`, 15},
		{"leading zero", `"08"`, 8},
		{"leading zero number string", `"010"`, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseAzureConfig(`{"token":"t","organization":"o","project":"p","pipeline_id":` + tt.value + `}`)
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.PipelineID)
		})
	}
}
