// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package config loads layered configuration (defaults, file, environment,
// flags) with koanf.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Registry: RegistryConfig{
			Path: ".",
		},
		Run: RunConfig{
			Concurrency:  0,
			Timeout:      30 * time.Minute,
			PollInterval: 30 * time.Second,
			Output:       "json",
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for confmap.Provider so every key
// is known to koanf before flags are applied.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"registry.path":     def.Registry.Path,
		"registry.base_ref": def.Registry.BaseRef,
		"registry.head_ref": def.Registry.HeadRef,
		"registry.ref":      def.Registry.Ref,
		"registry.repo":     def.Registry.Repo,

		"provider.name":   def.Provider.Name,
		"provider.config": def.Provider.Config,

		"run.concurrency":   def.Run.Concurrency,
		"run.timeout":       def.Run.Timeout.String(),
		"run.poll_interval": def.Run.PollInterval.String(),
		"run.output":        def.Run.Output,
	}
}

// LoadWithSources loads sources in ascending priority order, so later
// sources override earlier ones, then unmarshals the merged result.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("load %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	newCfg.Provider.Name = strings.ToLower(strings.TrimSpace(newCfg.Provider.Name))
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Validate checks that cfg is complete enough to start a run.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := keyForNamespace(fe.StructNamespace())
		if fe.Tag() == "required" {
			msgs = append(msgs, key+" is required")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s %s", key, fe.Value(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// keyForNamespace maps Config.Run.PollInterval to run.poll_interval.
func keyForNamespace(ns string) string {
	for key, field := range keyFields {
		if field == ns {
			return key
		}
	}
	return ns
}

var keyFields = map[string]string{
	"log.level":         "Config.Log.Level",
	"log.format":        "Config.Log.Format",
	"registry.path":     "Config.Registry.Path",
	"registry.base_ref": "Config.Registry.BaseRef",
	"registry.head_ref": "Config.Registry.HeadRef",
	"provider.name":     "Config.Provider.Name",
	"provider.config":   "Config.Provider.Config",
	"run.concurrency":   "Config.Run.Concurrency",
	"run.timeout":       "Config.Run.Timeout",
	"run.poll_interval": "Config.Run.PollInterval",
	"run.output":        "Config.Run.Output",
}
