// Package profile loads named configuration profiles from files.
//
// A profile file holds one table per profile:
//
//	[default]
//	forks = 2
//
//	[cluster]
//	scheduler = "sge"
//	scheduler_opts = { queue = "long" }
//
// The "default" table always applies; a named profile is layered over it.
// Files later in the search path win over earlier ones.
package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vk/pipeargs/internal/ctxlog"
	"github.com/vk/pipeargs/internal/dictutil"
	"github.com/vk/pipeargs/internal/fsutil"
	"github.com/vk/pipeargs/internal/hcl_adapter"
)

// DefaultProfile is always applied under any named profile.
const DefaultProfile = "default"

// ErrUnknownProfile is returned when no file defines the requested profile.
var ErrUnknownProfile = errors.New("unknown profile")

// Loader returns the merged settings of a profile.
type Loader interface {
	Load(ctx context.Context, profile string, paths ...string) (map[string]any, error)
}

// DefaultPaths returns the profile search path: the user's file first, then
// the one in the working directory.
func DefaultPaths() []string {
	return []string{
		fsutil.ExpandHome("~/.pipen.toml"),
		"./.pipen.toml",
	}
}

// FileLoader reads TOML, YAML and HCL profile files.
type FileLoader struct{}

// NewFileLoader creates a file-based profile loader.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load merges the default table and then the profile's table of every
// existing file in paths. Missing files are skipped. Requesting a profile
// other than "default" that no file defines is an error.
func (l *FileLoader) Load(ctx context.Context, profile string, paths ...string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	if profile == "" {
		profile = DefaultProfile
	}

	out := make(map[string]any)
	found := profile == DefaultProfile
	for _, path := range paths {
		path = fsutil.ExpandHome(path)
		if !fsutil.Exists(path) {
			continue
		}
		tables, err := readFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Read profile file.", "path", path, "profiles", len(tables))

		if def, err := table(tables, DefaultProfile, path); err != nil {
			return nil, err
		} else if def != nil {
			out = dictutil.Merge(out, def, 1)
		}
		if profile == DefaultProfile {
			continue
		}
		named, err := table(tables, profile, path)
		if err != nil {
			return nil, err
		}
		if named != nil {
			found = true
			out = dictutil.Merge(out, named, 1)
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q not found in %s", ErrUnknownProfile, profile, strings.Join(paths, ", "))
	}
	return out, nil
}

func table(tables map[string]any, name, path string) (map[string]any, error) {
	v, ok := tables[name]
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("profile %q in %s is not a table", name, path)
	}
	return m, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	var raw any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		raw = m
	case ".yaml", ".yml":
		var m map[string]any
		err = yaml.Unmarshal(data, &m)
		raw = m
	case ".hcl":
		raw, err = readHCL(path, data)
	default:
		return nil, fmt.Errorf("profile file %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing profile file %s: %w", path, err)
	}

	m, ok := dictutil.AsMap(raw)
	if !ok {
		return nil, fmt.Errorf("profile file %s: top level is not a table", path)
	}
	return m, nil
}

// readHCL reads profiles written as blocks: `profile "name" { forks = 2 }`.
func readHCL(path string, data []byte) (map[string]any, error) {
	f, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, diags
	}
	content, diags := f.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "profile", LabelNames: []string{"name"}}},
	})
	if diags.HasErrors() {
		return nil, diags
	}

	out := make(map[string]any)
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		settings := make(map[string]any, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			native, err := hcl_adapter.ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("profile %q, %s: %w", block.Labels[0], name, err)
			}
			settings[name] = native
		}
		out[block.Labels[0]] = settings
	}
	return out, nil
}
