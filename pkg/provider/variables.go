// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vulntor/regtest/pkg/model"
)

// Pipeline variable names shared by every provider.
const (
	VarScannerID    = "SCANNER_ID"
	VarTestName     = "TEST_NAME"
	VarTestType     = "TEST_TYPE"
	VarSourceURL    = "SOURCE_URL"
	VarSourceRef    = "SOURCE_REF"
	VarRegistryRef  = "REGISTRY_REF"
	VarRegistryRepo = "REGISTRY_REPO"
	VarScanPaths    = "SCAN_PATHS"
	VarTimeout      = "TIMEOUT"
	VarScanConfigs  = "SCAN_CONFIGS"
)

type variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// dispatchVariables builds the ordered variable set carried by every trigger
// request. SCAN_CONFIGS is only present when the test declares configs.
func dispatchVariables(scannerID string, test model.Test, registryRef, registryRepo string) ([]variable, error) {
	paths := test.ScanPaths
	if paths == nil {
		paths = []string{}
	}
	encodedPaths, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("encode scan paths: %w", err)
	}

	vars := []variable{
		{Key: VarScannerID, Value: scannerID},
		{Key: VarTestName, Value: test.Name},
		{Key: VarTestType, Value: string(test.Type)},
		{Key: VarSourceURL, Value: test.Source.URL},
		{Key: VarSourceRef, Value: test.Source.Ref},
		{Key: VarRegistryRef, Value: registryRef},
		{Key: VarRegistryRepo, Value: registryRepo},
		{Key: VarScanPaths, Value: string(encodedPaths)},
		{Key: VarTimeout, Value: test.Timeout},
	}

	if test.ScanConfigs != nil {
		encodedConfigs, err := json.Marshal(test.ScanConfigs)
		if err != nil {
			return nil, fmt.Errorf("encode scan configs: %w", err)
		}
		vars = append(vars, variable{Key: VarScanConfigs, Value: string(encodedConfigs)})
	}
	return vars, nil
}

// variableMap returns vars keyed by name, optionally lower-cased for
// providers whose inputs are declared in lower case.
func variableMap(vars []variable, lower bool) map[string]string {
	m := make(map[string]string, len(vars))
	for _, v := range vars {
		key := v.Key
		if lower {
			key = strings.ToLower(key)
		}
		m[key] = v.Value
	}
	return m
}
