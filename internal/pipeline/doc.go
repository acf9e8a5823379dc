// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pipeline holds the in-memory model of a declared pipeline: its
// processes, process groups, dependency edges and run settings. The argument
// layer reads this model to build its schema and writes resolved values back
// into it.
//
// Errors from this package wrap its sentinel errors with github.com/pkg/errors
// so callers can test them with errors.Is and still get a stack trace.
package pipeline
