// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package logging configures zerolog. The CLI points it at stderr so stdout
// stays reserved for the report.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Configure installs the global logger on w with the given level and format.
// Writes to w are serialized; concurrent tests log from many goroutines.
func Configure(w io.Writer, levelStr, format string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}

	out, err := formatWriter(zerolog.SyncWriter(w), format)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(out).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

// Component returns a child of the global logger tagged with component.
// Call it after Configure; the child keeps the writer it was created with.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// ParseLevel converts a level name to zerolog.Level. Empty means info.
func ParseLevel(levelString string) (zerolog.Level, error) {
	if levelString == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelString)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", levelString, err)
	}
	return level, nil
}

func formatWriter(w io.Writer, format string) (io.Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatConsole:
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}, nil
	case FormatJSON:
		return w, nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
