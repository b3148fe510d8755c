package sweepfile

import (
	"github.com/hashicorp/hcl/v2"
)

// hclFile represents the top-level structure of a sweep file for decoding.
type hclFile struct {
	Models []*hclModel `hcl:"model,block"`
	Sweeps []*hclSweep `hcl:"sweep,block"`
}

type hclModel struct {
	Abstract    string      `hcl:"abstract,label"`
	Name        string      `hcl:"name,label"`
	Description *string     `hcl:"description,optional"`
	Params      []*hclParam `hcl:"param,block"`
	Script      string      `hcl:"script"`
	DefRange    hcl.Range   `hcl:",def_range"`
}

func (m *hclModel) BlockLabel() string    { return m.Name }
func (m *hclModel) BlockRange() hcl.Range { return m.DefRange }

type hclParam struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description *string        `hcl:"description,optional"`
	DefRange    hcl.Range      `hcl:",def_range"`
}

func (p *hclParam) BlockLabel() string    { return p.Name }
func (p *hclParam) BlockRange() hcl.Range { return p.DefRange }

type hclSweep struct {
	Name            string                `hcl:"name,label"`
	Root            string                `hcl:"root"`
	Namespaces      []string              `hcl:"namespaces,optional"`
	Use             []string              `hcl:"use,optional"`
	Output          *string               `hcl:"output,optional"`
	Timeout         *string               `hcl:"timeout,optional"`
	MaxCombinations *int                  `hcl:"max_combinations,optional"`
	CacheLimit      *int                  `hcl:"cache_limit,optional"`
	Values          []*hclRange           `hcl:"values,block"`
	Implementations []*hclImplementations `hcl:"implementations,block"`
	Lengths         []*hclRange           `hcl:"lengths,block"`
	DefRange        hcl.Range             `hcl:",def_range"`
}

func (s *hclSweep) BlockLabel() string    { return s.Name }
func (s *hclSweep) BlockRange() hcl.Range { return s.DefRange }

// hclRange is a candidate set given either as an explicit list or as an
// inclusive from/to/step range.
type hclRange struct {
	Path       string         `hcl:"path,label"`
	Candidates hcl.Expression `hcl:"candidates,optional"`
	From       *float64       `hcl:"from,optional"`
	To         *float64       `hcl:"to,optional"`
	Step       *float64       `hcl:"step,optional"`
	DefRange   hcl.Range      `hcl:",def_range"`
}

func (r *hclRange) BlockLabel() string    { return r.Path }
func (r *hclRange) BlockRange() hcl.Range { return r.DefRange }

type hclImplementations struct {
	Path     string    `hcl:"path,label"`
	Use      []string  `hcl:"use"`
	DefRange hcl.Range `hcl:",def_range"`
}

func (i *hclImplementations) BlockLabel() string    { return i.Path }
func (i *hclImplementations) BlockRange() hcl.Range { return i.DefRange }
