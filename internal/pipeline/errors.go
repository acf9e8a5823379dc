// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file declares the sentinel errors of the pipeline model.
package pipeline

import "github.com/pkg/errors"

var (
	// ErrDuplicateProcess is returned when two processes share a name.
	ErrDuplicateProcess = errors.New("duplicate process name")
	// ErrUnknownProcess is returned when a dependency or start names a
	// process that was never added to the pipeline.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrCycle is returned when process dependencies form a cycle.
	ErrCycle = errors.New("process dependencies form a cycle")
	// ErrNoProcesses is returned when a pipeline has nothing to run.
	ErrNoProcesses = errors.New("pipeline has no processes")
	// ErrInvalidSettings is returned when resolved run settings fail validation.
	ErrInvalidSettings = errors.New("invalid pipeline settings")
)
