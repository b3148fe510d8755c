// Package sweepfile loads sweep definitions and scripted models from HCL
// files.
//
// A workspace may split its configuration across many files and
// directories. Loading consolidates every `model` and `sweep` block found
// under a path into one Definitions value, so a sweep may use models
// declared in any file.
package sweepfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/gridsweep/internal/bggohcl"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/fsutil"
	"github.com/specialistvlad/gridsweep/internal/tree"
)

// Extension is the suffix of sweep files.
const Extension = ".hcl"

// Sweep is one decoded sweep block.
type Sweep struct {
	Name     string
	Root     string
	Bindings tree.Bindings
	// Output is the file results are saved to, resolved against the
	// directory of the declaring file. Empty means results are not saved.
	Output          string
	Timeout         time.Duration
	MaxCombinations int
	// CacheLimit is nil when the sweep does not override the default.
	CacheLimit *int
	Filename   string
}

// Definitions is everything declared by a set of sweep files.
type Definitions struct {
	Models []catalog.Implementation
	Sweeps []*Sweep
}

// Register adds every scripted model to the catalog. Definitions is a
// catalog.Module.
func (d *Definitions) Register(c *catalog.Catalog) {
	for _, m := range d.Models {
		c.Register(m)
	}
}

// Names lists the declared sweeps in declaration order.
func (d *Definitions) Names() []string {
	names := make([]string, 0, len(d.Sweeps))
	for _, s := range d.Sweeps {
		names = append(names, s.Name)
	}
	return names
}

// Sweep returns the named sweep. An empty name selects the only sweep when
// exactly one is declared.
func (d *Definitions) Sweep(name string) (*Sweep, error) {
	if name == "" {
		switch len(d.Sweeps) {
		case 0:
			return nil, fmt.Errorf("no sweep blocks found")
		case 1:
			return d.Sweeps[0], nil
		default:
			return nil, fmt.Errorf("several sweeps are declared, pick one of: %s", strings.Join(d.Names(), ", "))
		}
	}
	for _, s := range d.Sweeps {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sweep %q is not declared (have: %s)", name, strings.Join(d.Names(), ", "))
}

// Load finds and parses every sweep file under path. path may also name a
// single file.
func Load(ctx context.Context, path string) (*Definitions, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading sweep files.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to find sweep files in %s: %w", path, err)
	}

	defs := &Definitions{}
	if len(files) == 0 {
		logger.Warn("No sweep files found in path.", "path", path)
		return defs, nil
	}

	parser := hclparse.NewParser()
	var parsed []*hclFile
	var names []string
	for _, filename := range files {
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse sweep file %s: %w", filename, diags)
		}
		f, err := decodeBody(filename, file.Body)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, f)
		names = append(names, filename)
	}

	if err := defs.add(parsed, names); err != nil {
		return nil, err
	}
	logger.Debug("Sweep files loaded.", "files", len(files), "models", len(defs.Models), "sweeps", len(defs.Sweeps))
	return defs, nil
}

// Parse decodes a single sweep file held in memory.
func Parse(filename string, src []byte) (*Definitions, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse sweep file %s: %w", filename, diags)
	}
	f, err := decodeBody(filename, file.Body)
	if err != nil {
		return nil, err
	}
	defs := &Definitions{}
	if err := defs.add([]*hclFile{f}, []string{filename}); err != nil {
		return nil, err
	}
	return defs, nil
}

func decodeBody(filename string, body hcl.Body) (*hclFile, error) {
	var f hclFile
	if diags := gohcl.DecodeBody(body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode sweep file %s: %w", filename, diags)
	}
	return &f, nil
}

// add converts the decoded files, checking names across all of them.
func (d *Definitions) add(files []*hclFile, filenames []string) error {
	var models []*hclModel
	var sweeps []*hclSweep
	for _, f := range files {
		models = append(models, f.Models...)
		sweeps = append(sweeps, f.Sweeps...)
	}
	diags := bggohcl.UniqueLabels("model", models)
	diags = append(diags, bggohcl.UniqueLabels("sweep", sweeps)...)
	if diags.HasErrors() {
		return fmt.Errorf("invalid sweep definitions: %w", diags)
	}

	for i, f := range files {
		filename := filenames[i]
		for _, m := range f.Models {
			impl, mDiags := decodeModel(m)
			if mDiags.HasErrors() {
				return fmt.Errorf("error in model %q in file %s: %w", m.Name, filename, mDiags)
			}
			d.Models = append(d.Models, impl)
		}
		for _, s := range f.Sweeps {
			sweep, sDiags := decodeSweep(filename, s)
			if sDiags.HasErrors() {
				return fmt.Errorf("error in sweep %q in file %s: %w", s.Name, filename, sDiags)
			}
			d.Sweeps = append(d.Sweeps, sweep)
		}
	}
	return nil
}

func resolveOutput(filename, output string) string {
	if output == "" || filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(filepath.Dir(filename), output)
}
