// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file gives uniform, name-based access to a process's control
// attributes.
package pipeline

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vk/pipeargs/internal/dictutil"
)

// Attr returns the value of a control attribute by its option name, and
// whether the process sets it.
func (p *Process) Attr(name string) (any, bool) {
	switch name {
	case "cache":
		return derefString(p.Cache)
	case "dirsig":
		return derefInt(p.DirSig)
	case "lang":
		return derefString(p.Lang)
	case "error_strategy":
		return derefString(p.ErrorStrategy)
	case "num_retries":
		return derefInt(p.NumRetries)
	case "forks":
		return derefInt(p.Forks)
	case "submission_batch":
		return derefInt(p.SubmissionBatch)
	case "scheduler":
		return derefString(p.Scheduler)
	case "order":
		return derefInt(p.Order)
	case "export":
		if p.Export == nil {
			return nil, false
		}
		return *p.Export, true
	case "scheduler_opts":
		if p.SchedulerOpts == nil {
			return nil, false
		}
		return dictutil.Copy(p.SchedulerOpts), true
	case "plugin_opts":
		if p.PluginOpts == nil {
			return nil, false
		}
		return dictutil.Copy(p.PluginOpts), true
	}
	return nil, false
}

// SetAttr sets a scalar control attribute by its option name.
func (p *Process) SetAttr(name string, v any) error {
	var (
		s  string
		i  int
		ok bool
	)
	switch name {
	case "cache", "lang", "error_strategy", "scheduler":
		s, ok = dictutil.AsString(v)
	case "dirsig", "num_retries", "forks", "submission_batch", "order":
		i, ok = dictutil.AsInt(v)
	case "export":
		var b bool
		if b, ok = dictutil.AsBool(v); ok {
			p.Export = &b
		}
	default:
		return errors.Errorf("process %q: %q is not a scalar control attribute", p.Name, name)
	}
	if !ok {
		return errors.Errorf("process %q: invalid value %v for %s", p.Name, v, name)
	}

	switch name {
	case "cache":
		s = strings.ToLower(s)
		p.Cache = &s
	case "lang":
		p.Lang = &s
	case "error_strategy":
		p.ErrorStrategy = &s
	case "scheduler":
		p.Scheduler = &s
	case "dirsig":
		p.DirSig = &i
	case "num_retries":
		p.NumRetries = &i
	case "forks":
		p.Forks = &i
	case "submission_batch":
		p.SubmissionBatch = &i
	case "order":
		p.Order = &i
	}
	return nil
}

func derefString(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

func derefInt(i *int) (any, bool) {
	if i == nil {
		return nil, false
	}
	return *i, true
}
