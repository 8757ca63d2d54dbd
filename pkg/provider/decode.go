// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import (
	"bytes"
	"encoding/json"
	"time"
)

// optional decodes a JSON value leniently. A null, a missing field or a value
// of the wrong shape leaves it unset instead of failing the outer decode.
type optional[T any] struct {
	Value T
	Valid bool
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	var zero T
	o.Value, o.Valid = zero, false
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	o.Value, o.Valid = v, true
	return nil
}

// Or returns the decoded value, or fallback when unset.
func (o optional[T]) Or(fallback T) T {
	if !o.Valid {
		return fallback
	}
	return o.Value
}

// href is the {"href": "..."} object used by Azure and Bitbucket link maps.
type href struct {
	Href optional[string] `json:"href"`
}

// parseTimestamp accepts the RFC 3339 variants returned by the supported
// providers, with or without fractional seconds.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// elapsedSeconds returns end-start in seconds, or 0 when either timestamp is
// missing, unparseable, or the interval is negative.
func elapsedSeconds(start, end optional[string]) float64 {
	s, ok := parseTimestamp(start.Or(""))
	if !ok {
		return 0
	}
	e, ok := parseTimestamp(end.Or(""))
	if !ok {
		return 0
	}
	d := e.Sub(s).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
