// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/vulntor/regtest/pkg/logging"
	"github.com/vulntor/regtest/pkg/model"
)

// SupportedManifestVersions is the semver range of manifest versions this
// runner knows. Manifests outside it still load; a warning is logged.
const SupportedManifestVersions = ">=1.0.0, <2.0.0"

// manifestNames are tried in order inside a scanner directory.
var manifestNames = []string{"tests.yaml", "tests.yml"}

var (
	validate           = newManifestValidator()
	supportedManifests = mustConstraint(SupportedManifestVersions)
)

func newManifestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// Loader reads scanner test manifests from a registry checkout.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader returns a Loader.
func NewLoader() *Loader {
	return &Loader{logger: logging.Component("registry")}
}

// LoadAllTests loads the manifest of every scanner in scannerIDs. Scanners
// whose manifest is missing or invalid are left out of the result.
// A manifest version outside SupportedManifestVersions is only reported.
func (l *Loader) LoadAllTests(ctx context.Context, registryPath string, scannerIDs []string) (map[string]model.TestDefinition, error) {
	definitions := make(map[string]model.TestDefinition, len(scannerIDs))
	for _, id := range scannerIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, err := LoadTestDefinition(registryPath, id)
		if err != nil {
			l.logger.Warn().Err(err).Str("scanner", id).Msg("Skipping scanner")
			continue
		}
		if !SupportsVersion(def.Version) {
			l.logger.Warn().
				Str("scanner", id).
				Str("version", def.Version).
				Str("supported", SupportedManifestVersions).
				Msg("Unrecognized manifest version")
		}
		definitions[id] = def
	}
	return definitions, nil
}

// HasTestDefinition reports whether scannerID has a manifest file.
func HasTestDefinition(registryPath, scannerID string) bool {
	_, err := manifestPath(registryPath, scannerID)
	return err == nil
}

func manifestPath(registryPath, scannerID string) (string, error) {
	dir := filepath.Join(registryPath, ScannersDir, filepath.FromSlash(scannerID))
	for _, name := range manifestNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrManifestNotFound, scannerID)
}

// LoadTestDefinition reads, defaults and validates the manifest of scannerID.
func LoadTestDefinition(registryPath, scannerID string) (model.TestDefinition, error) {
	path, err := manifestPath(registryPath, scannerID)
	if err != nil {
		return model.TestDefinition{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TestDefinition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := ParseTestDefinition(data)
	if err != nil {
		return model.TestDefinition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseTestDefinition decodes a manifest document and validates it.
func ParseTestDefinition(data []byte) (model.TestDefinition, error) {
	var def model.TestDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return model.TestDefinition{}, fmt.Errorf("%w: empty document", ErrInvalidManifest)
		}
		return model.TestDefinition{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	def = def.WithDefaults()
	if err := validate.Struct(def); err != nil {
		return model.TestDefinition{}, fmt.Errorf("%w: %s", ErrInvalidManifest, describeValidation(err))
	}
	return def, nil
}

// SupportsVersion reports whether a manifest version falls inside
// SupportedManifestVersions. Versions that are not semver are unsupported.
func SupportsVersion(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return supportedManifests.Check(v)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "TestDefinition.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
