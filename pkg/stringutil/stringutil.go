// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package stringutil provides small helpers for rendering untrusted text
// (API error bodies, pipeline messages) on a single line.
package stringutil

import "strings"

// Ellipsis flattens s to one line and shortens it to at most maxLength runes,
// appending "..." when truncated. With maxLength <= 3 there is no room for
// the ellipsis and s is cut hard.
func Ellipsis(s string, maxLength int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)

	if maxLength <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
