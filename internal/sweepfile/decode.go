package sweepfile

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/gridsweep/internal/bggohcl"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/luacomp"
	"github.com/specialistvlad/gridsweep/internal/schema"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// maxRangeValues bounds the values a from/to/step range may expand to.
const maxRangeValues = 1_000_000

func decodeModel(m *hclModel) (catalog.Implementation, hcl.Diagnostics) {
	diags := bggohcl.UniqueLabels("param", m.Params)
	if diags.HasErrors() {
		return catalog.Implementation{}, diags
	}

	params := make([]schema.Param, 0, len(m.Params))
	for _, p := range m.Params {
		param, pDiags := decodeParam(p)
		diags = append(diags, pDiags...)
		if pDiags.HasErrors() {
			continue
		}
		params = append(params, param)
	}
	if diags.HasErrors() {
		return catalog.Implementation{}, diags
	}
	if err := schema.Validate(m.Name, params); err != nil {
		return catalog.Implementation{}, diagnostic("Invalid model parameters", err.Error(), m.DefRange)
	}

	script := luacomp.Script{
		Name:     m.Name,
		Abstract: m.Abstract,
		Params:   params,
		Source:   m.Script,
		Origin:   fmt.Sprintf("%s:%d", m.DefRange.Filename, m.DefRange.Start.Line),
	}
	if m.Description != nil {
		script.Description = *m.Description
	}
	impl, err := luacomp.Compile(script)
	if err != nil {
		return catalog.Implementation{}, diagnostic("Invalid model script", err.Error(), m.DefRange)
	}
	return impl, nil
}

func decodeParam(p *hclParam) (schema.Param, hcl.Diagnostics) {
	param, diags := bggohcl.ParamFromTypeExpr(p.Name, p.Type)
	if diags.HasErrors() {
		return param, diags
	}
	if p.Description != nil {
		param = param.Describe(*p.Description)
	}

	raw, vDiags := p.Default.Value(nil)
	if vDiags.HasErrors() {
		return param, vDiags
	}
	if raw.IsNull() {
		return param, nil
	}
	if param.Kind != schema.KindScalar {
		return param, diagnostic("Invalid default", "Only scalar parameters may declare defaults.", p.Default.Range())
	}

	values := []cty.Value{raw}
	if raw.Type().IsTupleType() || raw.Type().IsListType() {
		values = raw.AsValueSlice()
	}
	for _, v := range values {
		converted, err := convert.Convert(v, param.Type)
		if err != nil {
			return param, diagnostic("Invalid default", fmt.Sprintf("Default for %q: %s.", p.Name, err), p.Default.Range())
		}
		param.Default = append(param.Default, converted)
	}
	return param, nil
}

func decodeSweep(filename string, s *hclSweep) (*Sweep, hcl.Diagnostics) {
	diags := bggohcl.UniqueLabels("values", s.Values)
	diags = append(diags, bggohcl.UniqueLabels("implementations", s.Implementations)...)
	diags = append(diags, bggohcl.UniqueLabels("lengths", s.Lengths)...)
	if diags.HasErrors() {
		return nil, diags
	}

	sweep := &Sweep{
		Name:     s.Name,
		Root:     s.Root,
		Filename: filename,
		Bindings: tree.Bindings{
			Namespaces:      s.Namespaces,
			Candidates:      make(map[string][]cty.Value, len(s.Values)),
			Implementations: make(map[string][]string, len(s.Implementations)+1),
			Lengths:         make(map[string][]int, len(s.Lengths)),
		},
		CacheLimit: s.CacheLimit,
	}
	if s.Output != nil {
		sweep.Output = resolveOutput(filename, *s.Output)
	}
	if s.Timeout != nil {
		d, err := time.ParseDuration(*s.Timeout)
		if err != nil || d < 0 {
			return nil, diagnostic("Invalid timeout", fmt.Sprintf("%q is not a valid non-negative duration.", *s.Timeout), s.DefRange)
		}
		sweep.Timeout = d
	}
	if s.MaxCombinations != nil {
		if *s.MaxCombinations < 0 {
			return nil, diagnostic("Invalid max_combinations", "max_combinations must not be negative.", s.DefRange)
		}
		sweep.MaxCombinations = *s.MaxCombinations
	}

	for _, r := range s.Values {
		values, vDiags := r.values()
		diags = append(diags, vDiags...)
		sweep.Bindings.Candidates[r.Path] = values
	}
	for _, r := range s.Lengths {
		lengths, lDiags := r.lengths()
		diags = append(diags, lDiags...)
		sweep.Bindings.Lengths[r.Path] = lengths
	}
	for _, i := range s.Implementations {
		sweep.Bindings.Implementations[i.Path] = i.Use
	}
	if len(s.Use) > 0 {
		if _, dup := sweep.Bindings.Implementations[""]; dup {
			diags = append(diags, diagnostic("Conflicting root implementations",
				"Set either the sweep's use attribute or an implementations block for the root, not both.", s.DefRange)...)
		}
		sweep.Bindings.Implementations[""] = s.Use
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return sweep, nil
}

// values expands the block into candidate values.
func (r *hclRange) values() ([]cty.Value, hcl.Diagnostics) {
	list, diags := r.Candidates.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	hasRange := r.From != nil || r.To != nil || r.Step != nil

	switch {
	case !list.IsNull() && hasRange:
		return nil, diagnostic("Ambiguous candidates", fmt.Sprintf("Candidates for %q must be either a list or a from/to/step range.", r.Path), r.DefRange)
	case !list.IsNull():
		if !list.Type().IsTupleType() && !list.Type().IsListType() && !list.Type().IsSetType() {
			return nil, diagnostic("Invalid candidates", fmt.Sprintf("Candidates for %q must be a list, got %s.", r.Path, list.Type().FriendlyName()), r.Candidates.Range())
		}
		return list.AsValueSlice(), nil
	case hasRange:
		return r.expand()
	default:
		return nil, diagnostic("Missing candidates", fmt.Sprintf("Block for %q sets neither candidates nor a from/to/step range.", r.Path), r.DefRange)
	}
}

func (r *hclRange) expand() ([]cty.Value, hcl.Diagnostics) {
	if r.From == nil || r.To == nil {
		return nil, diagnostic("Incomplete range", fmt.Sprintf("Range for %q needs both from and to.", r.Path), r.DefRange)
	}
	from, to, step := *r.From, *r.To, 1.0
	if r.Step != nil {
		step = *r.Step
	}
	if step <= 0 || to < from {
		return nil, diagnostic("Invalid range", fmt.Sprintf("Range for %q needs step > 0 and to >= from.", r.Path), r.DefRange)
	}

	// Compared as a float first: the span over a tiny step may exceed int.
	count := math.Floor((to-from)/step+1e-9) + 1
	if !(count <= maxRangeValues) {
		return nil, diagnostic("Range too large", fmt.Sprintf("Range for %q expands to %g values, the limit is %d.", r.Path, count, maxRangeValues), r.DefRange)
	}
	n := int(count)
	values := make([]cty.Value, 0, n)
	for i := range n {
		values = append(values, numberVal(from+float64(i)*step))
	}
	return values, nil
}

// lengths expands the block into array lengths.
func (r *hclRange) lengths() ([]int, hcl.Diagnostics) {
	values, diags := r.values()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := convert.Convert(v, cty.Number)
		if err != nil || n.IsNull() {
			return nil, diagnostic("Invalid length", fmt.Sprintf("Lengths for %q must be numbers.", r.Path), r.DefRange)
		}
		f, _ := n.AsBigFloat().Float64()
		if f < 0 || f != math.Trunc(f) {
			return nil, diagnostic("Invalid length", fmt.Sprintf("Length %v for %q is not a non-negative whole number.", f, r.Path), r.DefRange)
		}
		out = append(out, int(f))
	}
	return out, nil
}

// numberVal rounds away float accumulation noise such as 0.30000000000000004.
func numberVal(f float64) cty.Value {
	f, _ = strconv.ParseFloat(strconv.FormatFloat(f, 'g', 12, 64), 64)
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return cty.NumberIntVal(int64(f))
	}
	return cty.NumberFloatVal(f)
}

func diagnostic(summary, detail string, subject hcl.Range) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  subject.Ptr(),
	}}
}
