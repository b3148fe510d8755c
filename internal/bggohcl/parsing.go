// Package bggohcl holds helpers shared by the HCL decoders.
package bggohcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Labeled is a decoded block identified by its first label.
type Labeled interface {
	BlockLabel() string
	BlockRange() hcl.Range
}

// UniqueLabels reports every block whose label was already used by an
// earlier block of the same type.
func UniqueLabels[B Labeled](blockType string, blocks []B) hcl.Diagnostics {
	var diags hcl.Diagnostics
	seen := make(map[string]hcl.Range, len(blocks))

	for _, block := range blocks {
		label := block.BlockLabel()
		if first, dup := seen[label]; dup {
			rng := block.BlockRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", blockType),
				Detail:   fmt.Sprintf("A %s block labeled %q was already declared at %s.", blockType, label, first),
				Subject:  &rng,
			})
			continue
		}
		seen[label] = block.BlockRange()
	}

	return diags
}
