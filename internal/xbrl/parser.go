// Package xbrl parses XBRL JSON-LD fact data from EDGAR company facts
// documents and flattens it into statement snapshots.
package xbrl

import (
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/model"
)

// CompanyFacts represents the EDGAR company facts JSON-LD structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by namespace (e.g., "us-gaap", "ifrs-full", "dei").
type FactNS map[string]Fact

// Fact is a single XBRL fact with its units and values.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a fact. Segment carries the
// dimensional member qualifier when the fact is a segment breakdown;
// empty means the consolidated total.
type FactValue struct {
	Start   string `json:"start,omitempty"`
	End     string `json:"end"`
	Val     any    `json:"val"`
	Accn    string `json:"accn"`
	FY      int    `json:"fy"`
	FP      string `json:"fp"`
	Form    string `json:"form"`
	Filed   string `json:"filed"`
	Frame   string `json:"frame,omitempty"`
	Segment string `json:"segment,omitempty"`
}

// ParseCompanyFacts parses EDGAR company facts JSON-LD from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	var facts CompanyFacts
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse company facts")
	}
	return &facts, nil
}

// namespaces are scanned in order; tags in the us-gaap namespace match
// registry aliases by bare name, other namespaces by "ns:name".
var namespaces = []string{"us-gaap", "ifrs-full", "dei"}

// tagForNS returns the registry tag key for a fact in the given namespace.
func tagForNS(ns, factName string) string {
	if ns == "us-gaap" {
		return factName
	}
	return ns + ":" + factName
}

// record is one extracted fact value before grouping.
type record struct {
	tag   string
	label string
	unit  string
	v     FactValue
	value float64
	end   time.Time
	filed time.Time
}

// formFilingTypes maps EDGAR form names to filing types, including amended
// variants.
func filingTypeForForm(form string) (model.FilingType, bool) {
	switch strings.TrimSuffix(form, "/A") {
	case "10-K":
		return model.FilingAnnual, true
	case "10-Q":
		return model.FilingQuarterly, true
	case "20-F":
		return model.FilingForeignAnnual, true
	case "6-K":
		return model.FilingForeignInterim, true
	default:
		return "", false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// BuildSnapshots flattens company facts into per-period statement snapshots
// for the tags registered in reg, limited to the requested filing types and
// the most recent number of fiscal periods per filing type.
func BuildSnapshots(facts *CompanyFacts, companyID string, reg *concept.Registry, filingTypes []model.FilingType, periods int) []model.StatementSnapshot {
	if facts == nil || len(facts.Facts) == 0 {
		return nil
	}
	if periods <= 0 {
		periods = 2
	}

	wanted := make(map[model.FilingType]bool, len(filingTypes))
	for _, ft := range filingTypes {
		wanted[ft] = true
	}
	targetSet := make(map[string]bool)
	for _, t := range reg.Tags() {
		targetSet[t] = true
	}

	// Collect all values for registered tags, keeping only the latest
	// filing per (tag, dimension, period) — later filings restate earlier
	// ones.
	type dedupeKey struct {
		ft     model.FilingType
		tag    string
		dim    string
		period string
		unit   string
	}
	latest := make(map[dedupeKey]record)

	for _, ns := range namespaces {
		nsMap, ok := facts.Facts[ns]
		if !ok {
			continue
		}
		for factName, fact := range nsMap {
			tag := tagForNS(ns, factName)
			if !targetSet[tag] {
				continue
			}
			for unit, values := range fact.Units {
				for _, v := range values {
					if v.End == "" {
						continue
					}
					ft, ok := filingTypeForForm(v.Form)
					if !ok || !wanted[ft] {
						continue
					}
					value, ok := asFloat(v.Val)
					if !ok {
						continue
					}
					end, err := time.Parse("2006-01-02", v.End)
					if err != nil {
						continue
					}
					filed, _ := time.Parse("2006-01-02", v.Filed)

					k := dedupeKey{ft: ft, tag: tag, dim: v.Segment, period: v.End, unit: unit}
					if prev, ok := latest[k]; ok && !prev.filed.Before(filed) {
						continue
					}
					latest[k] = record{
						tag:   tag,
						label: fact.Label,
						unit:  unit,
						v:     v,
						value: value,
						end:   end,
						filed: filed,
					}
				}
			}
		}
	}

	// Group records by (filing type, period).
	type groupKey struct {
		ft     model.FilingType
		period string
	}
	groups := make(map[groupKey][]record)
	for k, r := range latest {
		gk := groupKey{ft: k.ft, period: k.period}
		groups[gk] = append(groups[gk], r)
	}

	// Keep only the most recent periods per filing type.
	periodsByType := make(map[model.FilingType][]string)
	for gk := range groups {
		periodsByType[gk.ft] = append(periodsByType[gk.ft], gk.period)
	}
	keep := make(map[groupKey]bool)
	for ft, ps := range periodsByType {
		sort.Sort(sort.Reverse(sort.StringSlice(ps)))
		if len(ps) > periods {
			ps = ps[:periods]
		}
		for _, p := range ps {
			keep[groupKey{ft: ft, period: p}] = true
		}
	}

	var snapshots []model.StatementSnapshot
	for gk, recs := range groups {
		if !keep[gk] {
			continue
		}
		snapshots = append(snapshots, buildPeriodSnapshots(companyID, gk.ft, gk.period, recs, reg)...)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].FilingType != snapshots[j].FilingType {
			return snapshots[i].FilingType < snapshots[j].FilingType
		}
		if snapshots[i].Period != snapshots[j].Period {
			return snapshots[i].Period > snapshots[j].Period
		}
		return snapshots[i].StatementType < snapshots[j].StatementType
	})
	return snapshots
}

// buildPeriodSnapshots splits one period's records into per-statement
// snapshots (balance sheet / income / cash flow).
func buildPeriodSnapshots(companyID string, ft model.FilingType, period string, recs []record, reg *concept.Registry) []model.StatementSnapshot {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].tag != recs[j].tag {
			return recs[i].tag < recs[j].tag
		}
		return recs[i].v.Segment < recs[j].v.Segment
	})

	byStatement := make(map[model.StatementType][]model.StatementLineItem)
	var filedAt time.Time
	var accession string
	for _, r := range recs {
		c, ok := reg.ConceptFor(r.tag)
		if !ok {
			continue
		}
		end := r.end
		item := model.StatementLineItem{
			Concept:         r.tag,
			Label:           r.label,
			Value:           model.Float64(r.value),
			Unit:            r.unit,
			PeriodEnd:       &end,
			Dimension:       r.v.Segment,
			IsTotalOrHeader: c.Total(),
		}
		st := c.StatementOf()
		byStatement[st] = append(byStatement[st], item)
		if r.filed.After(filedAt) {
			filedAt = r.filed
			accession = r.v.Accn
		}
	}

	periodEnd, _ := time.Parse("2006-01-02", period)
	var snapshots []model.StatementSnapshot
	for _, st := range []model.StatementType{model.StatementBalanceSheet, model.StatementIncome, model.StatementCashFlow} {
		items, ok := byStatement[st]
		if !ok {
			continue
		}
		snapshots = append(snapshots, model.StatementSnapshot{
			CompanyID:     companyID,
			FilingType:    ft,
			StatementType: st,
			Period:        period,
			PeriodEnd:     periodEnd,
			FiledAt:       filedAt,
			Accession:     accession,
			Items:         items,
		})
	}
	return snapshots
}
