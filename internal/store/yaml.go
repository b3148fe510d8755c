package store

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/gridsweep/internal/results"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Sweep  string      `yaml:"sweep"`
	Points []yamlPoint `yaml:"points"`
}

type yamlPoint struct {
	Index     int     `yaml:"index"`
	Inputs    []field `yaml:"inputs"`
	Results   []field `yaml:"results,omitempty"`
	Failed    bool    `yaml:"failed,omitempty"`
	ErrorKind string  `yaml:"error_kind,omitempty"`
	Error     string  `yaml:"error,omitempty"`
}

type yamlCodec struct{}

func (yamlCodec) Save(_ context.Context, path string, view results.View) error {
	doc := yamlDocument{Sweep: view.ID(), Points: make([]yamlPoint, 0, view.Len())}
	for _, dp := range view.Points() {
		doc.Points = append(doc.Points, yamlPoint{
			Index:     dp.Index,
			Inputs:    encodeFields(dp.Inputs),
			Results:   encodeFields(dp.Results),
			Failed:    dp.Failed,
			ErrorKind: dp.ErrorKind,
			Error:     dp.Error,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (yamlCodec) Load(_ context.Context, path string) (results.View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return results.View{}, err
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return results.View{}, fmt.Errorf("failed to decode yaml: %w", err)
	}

	points := make([]results.DataPoint, 0, len(doc.Points))
	for i, p := range doc.Points {
		inputs, err := decodeFields(p.Inputs)
		if err != nil {
			return results.View{}, fmt.Errorf("point %d inputs: %w", i, err)
		}
		outputs, err := decodeFields(p.Results)
		if err != nil {
			return results.View{}, fmt.Errorf("point %d results: %w", i, err)
		}
		points = append(points, results.DataPoint{
			Index:     p.Index,
			Inputs:    inputs,
			Results:   outputs,
			Failed:    p.Failed,
			ErrorKind: p.ErrorKind,
			Error:     p.Error,
		})
	}
	return results.NewView(doc.Sweep, points), nil
}
