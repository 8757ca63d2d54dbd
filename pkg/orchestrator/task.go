// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package orchestrator

import (
	"time"

	"github.com/vulntor/regtest/pkg/model"
	"github.com/vulntor/regtest/pkg/provider"
)

// State tracks a task through dispatch and completion.
type State int

const (
	StatePending State = iota
	StateDispatched
	StateCompleted
	StateTimedOut
	StateErrored
)

func (s State) String() string {
	return [...]string{"pending", "dispatched", "completed", "timed_out", "errored"}[s]
}

type task struct {
	scannerID string
	test      model.Test
	state     State
	handle    provider.RunHandle
	startTime time.Time
	endTime   time.Time
}

// buildTasks creates one task per declared test, walking scanners in
// detection order and tests in manifest order. Scanners without a
// definition are skipped.
func buildTasks(scannerIDs []string, definitions map[string]model.TestDefinition) []*task {
	var tasks []*task
	for _, id := range scannerIDs {
		def, ok := definitions[id]
		if !ok {
			continue
		}
		for _, t := range def.Tests {
			tasks = append(tasks, &task{scannerID: id, test: t, state: StatePending})
		}
	}
	return tasks
}
