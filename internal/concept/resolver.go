package concept

import (
	"sort"

	"github.com/sells-group/findata-cli/internal/model"
)

// Resolution is the outcome of looking up one canonical concept in a set
// of statement line items. Missing data is reported, never raised.
type Resolution struct {
	Concept Concept
	// Tag is the provider tag that matched, empty when nothing did.
	Tag   string
	Value *float64
	Found bool
	// Ambiguous is set when multiple dimensional variants matched and no
	// unqualified (consolidated) item existed; the first variant in stable
	// order was selected.
	Ambiguous bool
}

// Resolver looks up canonical concepts across taxonomy differences using
// the registry's ordered alias lists.
type Resolver struct {
	reg *Registry
}

// NewResolver creates a Resolver over the given registry.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Registry returns the underlying tag registry.
func (r *Resolver) Registry() *Registry {
	return r.reg
}

// Resolve finds the value for a canonical concept in the given line items.
//
// Aliases are tried in registry order; the first tag with any reported
// value wins. Within a tag, items with an empty dimension qualifier (the
// consolidated total) are preferred over segment-qualified breakdowns —
// picking a segment row would double-count companies with dimensional
// disclosures. When only qualified variants exist, the first in a stable
// sort by dimension is selected and the resolution is flagged ambiguous.
func (r *Resolver) Resolve(items []model.StatementLineItem, c Concept) Resolution {
	res := Resolution{Concept: c}

	for _, tag := range r.reg.Aliases(c) {
		var matches []model.StatementLineItem
		for _, it := range items {
			if it.Concept != tag || it.Value == nil {
				continue
			}
			matches = append(matches, it)
		}
		if len(matches) == 0 {
			continue
		}

		res.Tag = tag
		res.Found = true

		for _, m := range matches {
			if m.Dimension == "" {
				res.Value = m.Value
				return res
			}
		}

		// Only segment-qualified variants exist. Deterministic pick:
		// stable sort by dimension, take the first, and flag it.
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Dimension < matches[j].Dimension
		})
		res.Value = matches[0].Value
		res.Ambiguous = len(matches) > 1
		return res
	}

	return res
}

// Value resolves the concept and returns just the numeric value, nil when
// absent.
func (r *Resolver) Value(items []model.StatementLineItem, c Concept) *float64 {
	return r.Resolve(items, c).Value
}
