package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/ctxlog"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/profile"
	"github.com/vk/pipeargs/internal/resolve"
	"github.com/vk/pipeargs/internal/schema"
	"github.com/vk/pipeargs/internal/session"
)

// Loader reads a pipeline declaration.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*pipeline.Pipeline, error)
}

// Option customizes an App.
type Option func(*App)

// WithRegistry uses reg instead of session.Default. Tests use their own.
func WithRegistry(reg *session.Registry) Option {
	return func(a *App) { a.registry = reg }
}

// WithProfileLoader replaces the profile file loader.
func WithProfileLoader(l profile.Loader) Option {
	return func(a *App) { a.profiles = l }
}

// WithExtra registers an extra option parsed ahead of the pipeline schema.
func WithExtra(arg argparse.ExtraArg) Option {
	return func(a *App) { a.extras = append(a.extras, arg) }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   Loader
	profiles profile.Loader
	registry *session.Registry
	extras   []argparse.ExtraArg

	pipeline *pipeline.Pipeline
	schema   *schema.Schema
	session  *session.Session
	result   *resolve.Result

	warnings []string
	infos    []string
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger; nothing is loaded until Init.
func NewApp(outW io.Writer, cfg *Config, loader Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		profiles: profile.NewFileLoader(),
		registry: session.Default,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Pipeline returns the loaded pipeline. Valid after Init.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Schema returns the generated option schema. Valid after Init.
func (a *App) Schema() *schema.Schema {
	return a.schema
}

// Result returns the resolution result. Valid after a successful Init.
func (a *App) Result() *resolve.Result {
	return a.result
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
