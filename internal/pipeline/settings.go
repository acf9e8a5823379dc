// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the pipeline-wide run settings and their validation.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vk/pipeargs/internal/dictutil"
)

var settingsValidate = validator.New()

// DefaultConfig returns the compiled-in run settings.
func DefaultConfig() map[string]any {
	return map[string]any{
		"loglevel":         "info",
		"cache":            "true",
		"dirsig":           1,
		"error_strategy":   "ignore",
		"num_retries":      3,
		"forks":            1,
		"submission_batch": 8,
		"lang":             "bash",
		"scheduler":        "local",
		"scheduler_opts":   map[string]any{},
		"plugins":          nil,
		"plugin_opts":      map[string]any{},
		"template_opts":    map[string]any{},
		"workdir":          "./.pipen",
	}
}

// Settings is the typed view of the scalar run settings.
type Settings struct {
	Name            string `validate:"required"`
	Loglevel        string `validate:"oneof=debug info warning error critical"`
	Cache           string `validate:"oneof=true false force"`
	DirSig          int    `validate:"gte=0"`
	ErrorStrategy   string `validate:"oneof=ignore halt retry"`
	NumRetries      int    `validate:"gte=0"`
	Forks           int    `validate:"gte=1"`
	SubmissionBatch int    `validate:"gte=1"`
	Scheduler       string `validate:"required"`
	Lang            string `validate:"required"`
}

// SettingsFromConfig extracts the scalar settings from a config table.
// Values that cannot be converted are left zero and fail validation.
func SettingsFromConfig(name string, cfg map[string]any) Settings {
	s := Settings{Name: name}
	s.Loglevel, _ = dictutil.AsString(cfg["loglevel"])
	s.Loglevel = strings.ToLower(s.Loglevel)
	s.Cache, _ = dictutil.AsString(cfg["cache"])
	s.Cache = strings.ToLower(s.Cache)
	s.DirSig, _ = dictutil.AsInt(cfg["dirsig"])
	s.ErrorStrategy, _ = dictutil.AsString(cfg["error_strategy"])
	s.NumRetries, _ = dictutil.AsInt(cfg["num_retries"])
	s.Forks, _ = dictutil.AsInt(cfg["forks"])
	s.SubmissionBatch, _ = dictutil.AsInt(cfg["submission_batch"])
	s.Scheduler, _ = dictutil.AsString(cfg["scheduler"])
	s.Lang, _ = dictutil.AsString(cfg["lang"])
	return s
}

// Validate checks the settings against their declared constraints.
func (s Settings) Validate() error {
	err := settingsValidate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(ErrInvalidSettings, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: %v violates %s", fe.Field(), fe.Value(), rule))
	}
	return errors.Wrap(ErrInvalidSettings, strings.Join(msgs, "; "))
}
