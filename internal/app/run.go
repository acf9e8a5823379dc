package app

import (
	"context"
	"fmt"

	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/dump"
	"github.com/vk/pipeargs/internal/resolve"
	"github.com/vk/pipeargs/internal/schema"
	"github.com/vk/pipeargs/internal/writeback"
)

// load reads the pipeline declaration and claims the session for it.
func (a *App) load(ctx context.Context) error {
	p, err := a.loader.Load(ctx, a.config.PipelinePaths...)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	sess, err := a.registry.Begin(p.Name)
	if err != nil {
		return err
	}
	a.pipeline = p
	a.session = sess
	a.logger.Debug("Pipeline loaded.", "pipeline", p.Name, "processes", len(p.Processes()), "session", sess.Token)
	return nil
}

func (a *App) buildSchema() (*schema.Schema, error) {
	opts := schema.BuildOptions{}
	if a.config.Flatten != "" {
		mode, err := schema.ParseFlattenMode(a.config.Flatten)
		if err != nil {
			return nil, err
		}
		opts.Flatten = mode
	}
	s, err := schema.Build(a.pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument schema: %w", err)
	}
	a.logger.Debug("Argument schema built.", "flags", len(s.Flags()), "sections", len(s.Sections), "flatten", s.Flatten)
	return s, nil
}

// Init loads the pipeline, parses args against its schema, resolves the
// configuration and writes it back onto the pipeline. Warnings are held
// until FlushWarnings. When help is requested it is printed and
// argparse.ErrHelp is returned.
func (a *App) Init(ctx context.Context, args []string) (*resolve.Result, error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Init method started.", "args", len(args))

	if err := a.load(ctx); err != nil {
		return nil, err
	}

	parser := argparse.New(a.pipeline.Name, a.outW)
	for _, extra := range a.extras {
		if err := parser.AddExtra(extra); err != nil {
			return nil, err
		}
	}
	provisional, err := parser.ParseExtra(args)
	if err != nil {
		return nil, err
	}
	rest := parser.Remaining()

	for _, g := range a.pipeline.Groups() {
		if err := argparse.ParseGroupOptions(g, rest); err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
	}

	s, err := a.buildSchema()
	if err != nil {
		return nil, err
	}
	a.schema = s
	parser.Bind(s)

	ns, err := parser.Parse(rest)
	if err != nil {
		return nil, err
	}
	provisional.Promote(ns)

	res, err := resolve.Resolve(ctx, ns, a.pipeline, s, resolve.Options{
		Loader:      a.profiles,
		ConfigPaths: a.config.ConfigPaths,
	})
	if err != nil {
		return nil, err
	}
	a.warnings = append(a.warnings, res.Warnings...)
	a.infos = append(a.infos, res.Infos...)

	warns, err := writeback.Apply(res.Config, a.pipeline)
	if err != nil {
		return nil, err
	}
	a.warnings = append(a.warnings, warns...)

	if a.config.Dump || dump.Enabled(res.Config) {
		path := dump.Path(res.Config)
		if err := dump.Write(path, res.Config, s, a.pipeline); err != nil {
			return nil, err
		}
		a.infos = append(a.infos, "All arguments are dumped to "+path)
	}

	a.result = res
	a.logger.Debug("App.Init method finished.", "warnings", len(a.warnings))
	return res, nil
}

// FlushWarnings logs the warnings and notes collected by Init, once.
func (a *App) FlushWarnings() {
	for _, w := range a.warnings {
		a.logger.Warn(w)
	}
	for _, info := range a.infos {
		a.logger.Info(info)
	}
	a.warnings, a.infos = nil, nil
}

// Describe loads the pipeline and prints the full help of its options.
func (a *App) Describe(ctx context.Context) error {
	ctx = a.context(ctx)
	if err := a.load(ctx); err != nil {
		return err
	}
	s, err := a.buildSchema()
	if err != nil {
		return err
	}
	a.schema = s
	parser := argparse.New(a.pipeline.Name, a.outW)
	parser.Bind(s)
	return parser.Help(true)
}

// Run initializes the pipeline from args and reports the resolved settings.
func (a *App) Run(ctx context.Context, args []string) error {
	if _, err := a.Init(ctx, args); err != nil {
		return err
	}
	a.logger.Info("Pipeline configured.",
		"pipeline", a.result.Config.Name,
		"profile", a.result.Config.Profile,
		"outdir", a.result.Config.Outdir,
		"workdir", a.result.Config.Workdir,
	)
	a.FlushWarnings()
	for _, proc := range a.pipeline.Processes() {
		a.logger.Info("Process configured.", "process", proc.Name, "jobs", proc.InputData.Len())
	}
	return nil
}

// Close releases the session so another pipeline may be initialized.
func (a *App) Close() {
	if a.session != nil {
		a.session.End()
		a.session = nil
	}
}
