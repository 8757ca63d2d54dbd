// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vulntor/regtest/cmd/regtest/commands"
)

// main runs the regtest command tree and maps its error to an exit code:
//   - 0: success, or no tests to run
//   - 1: test failures or runtime errors
//   - 2: invalid usage or configuration
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx, commands.NewCommand())
	stop()
	os.Exit(code)
}
