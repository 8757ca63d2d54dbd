// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package registry

import "errors"

var (
	// ErrManifestNotFound indicates a scanner directory has no tests.yaml.
	ErrManifestNotFound = errors.New("test manifest not found")

	// ErrInvalidManifest indicates a manifest that is empty, malformed or
	// fails schema validation.
	ErrInvalidManifest = errors.New("invalid test manifest")

	// ErrRefNotFound indicates a git reference could not be resolved, even
	// with an origin/ prefix.
	ErrRefNotFound = errors.New("reference not found")

	// ErrNoRemote indicates the registry repository has no origin remote URL.
	ErrNoRemote = errors.New("origin remote not configured")
)
