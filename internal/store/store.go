// Package store saves and loads sweep results.
//
// The format is chosen by file extension: `.yaml` and `.yml` files hold one
// sweep as a YAML document, `.db` and `.sqlite` files hold any number of
// sweeps in a SQLite database. Both formats keep field order and write
// values as lossless text, so a round trip reproduces every float64 bit,
// NaN included.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/results"
)

// Codec reads and writes one file format.
type Codec interface {
	Save(ctx context.Context, path string, view results.View) error
	Load(ctx context.Context, path string) (results.View, error)
}

var codecs = map[string]Codec{
	".yaml":   yamlCodec{},
	".yml":    yamlCodec{},
	".db":     sqliteCodec{},
	".sqlite": sqliteCodec{},
}

// CodecFor returns the codec registered for the extension of path.
func CodecFor(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported results file extension %q (want .yaml, .yml, .db or .sqlite)", ext)
	}
	return c, nil
}

// Save writes view to path.
func Save(ctx context.Context, path string, view results.View) error {
	c, err := CodecFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := c.Save(ctx, path, view); err != nil {
		return fmt.Errorf("failed to save results to %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Info("Results saved.", "path", path, "points", view.Len())
	return nil
}

// Load reads the sweep stored at path. For databases holding several sweeps
// the most recently saved one is returned.
func Load(ctx context.Context, path string) (results.View, error) {
	c, err := CodecFor(path)
	if err != nil {
		return results.View{}, err
	}
	view, err := c.Load(ctx, path)
	if err != nil {
		return results.View{}, fmt.Errorf("failed to load results from %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Results loaded.", "path", path, "points", view.Len())
	return view, nil
}

// field is the format-neutral record of one results.Field.
type field struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

func encodeFields(fields []results.Field) []field {
	out := make([]field, len(fields))
	for i, f := range fields {
		out[i] = field{Name: f.Name, Kind: f.Value.Kind().String(), Value: f.Value.Text()}
	}
	return out
}

func decodeField(f field) (results.Field, error) {
	kind, err := results.ParseKind(f.Kind)
	if err != nil {
		return results.Field{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	v, err := results.Parse(kind, f.Value)
	if err != nil {
		return results.Field{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return results.F(f.Name, v), nil
}

func decodeFields(in []field) ([]results.Field, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]results.Field, len(in))
	for i, f := range in {
		decoded, err := decodeField(f)
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}
