package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var configValidate = validator.New()

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePaths are .hcl files or directories holding the pipeline declaration.
	PipelinePaths []string `validate:"required,min=1,dive,required"`
	// ConfigPaths is the profile search path. Nil means the default one.
	ConfigPaths []string

	LogFormat string `validate:"oneof=auto text json"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	// Dump writes the resolved arguments even when plugin_opts.args_dump is off.
	Dump bool
	// Flatten overrides plugin_opts.args_flatten: auto, true or false.
	Flatten string `validate:"omitempty,oneof=auto true false"`
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "auto"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v", fe.Field(), fe.Value()))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return &cfg, nil
}
