// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package appctx carries the loaded configuration through command contexts.
package appctx

import (
	"context"

	"github.com/vulntor/regtest/pkg/config"
)

type key string

const configKey key = "regtest.config.manager"

// WithConfig stores the shared config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Manager retrieves the shared config manager from context.
func Manager(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// Config returns the merged configuration, or the defaults when no manager
// was stored.
func Config(ctx context.Context) config.Config {
	if mgr, ok := Manager(ctx); ok {
		return mgr.Get()
	}
	return config.DefaultConfig()
}
