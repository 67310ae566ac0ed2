// Package model defines the shared data types for the filing cache and
// ratio computation engine.
package model

import "time"

// FilingType identifies the filing regime a statement was extracted from.
type FilingType string

const (
	FilingAnnual         FilingType = "10-K" // domestic annual
	FilingQuarterly      FilingType = "10-Q" // domestic quarterly
	FilingForeignAnnual  FilingType = "20-F" // foreign private issuer annual
	FilingForeignInterim FilingType = "6-K"  // foreign semiannual/interim
)

// Foreign reports whether the filing type belongs to the foreign issuer regime.
func (t FilingType) Foreign() bool {
	return t == FilingForeignAnnual || t == FilingForeignInterim
}

// DomesticFilingTypes returns the domestic annual/quarterly regime.
func DomesticFilingTypes() []FilingType {
	return []FilingType{FilingAnnual, FilingQuarterly}
}

// ForeignFilingTypes returns the foreign annual/semiannual regime.
func ForeignFilingTypes() []FilingType {
	return []FilingType{FilingForeignAnnual, FilingForeignInterim}
}

// StatementType classifies a statement snapshot.
type StatementType string

const (
	StatementBalanceSheet StatementType = "balance_sheet"
	StatementIncome       StatementType = "income_statement"
	StatementCashFlow     StatementType = "cash_flow"
)

// StatementLineItem is one reported fact from a filing.
//
// Value is nil when the fact was tagged but not reported for the period.
// Dimension carries the segment/member qualifier from dimensional
// disclosures; empty means the consolidated total.
type StatementLineItem struct {
	Concept         string     `json:"concept"`
	Label           string     `json:"label,omitempty"`
	Value           *float64   `json:"value,omitempty"`
	Unit            string     `json:"unit,omitempty"`
	PeriodEnd       *time.Time `json:"period_end,omitempty"`
	Dimension       string     `json:"dimension,omitempty"`
	IsTotalOrHeader bool       `json:"is_total_or_header,omitempty"`
}

// StatementSnapshot is the full set of line items for one statement type,
// one company, and one fiscal period. Immutable once stored.
type StatementSnapshot struct {
	CompanyID     string              `json:"company_id"`
	FilingType    FilingType          `json:"filing_type"`
	StatementType StatementType       `json:"statement_type"`
	Period        string              `json:"period"` // fiscal period end, YYYY-MM-DD
	PeriodEnd     time.Time           `json:"period_end"`
	FiledAt       time.Time           `json:"filed_at"`
	Accession     string              `json:"accession,omitempty"`
	Items         []StatementLineItem `json:"items"`
}

// Float64 returns a pointer to v. Convenience for building line items.
func Float64(v float64) *float64 {
	return &v
}

// MergeItems flattens the line items of several snapshots into a single
// slice, preserving snapshot order. Used when resolving concepts that span
// statement types (e.g., ratios mixing balance sheet and income facts).
func MergeItems(snapshots []StatementSnapshot) []StatementLineItem {
	var n int
	for _, s := range snapshots {
		n += len(s.Items)
	}
	items := make([]StatementLineItem, 0, n)
	for _, s := range snapshots {
		items = append(items, s.Items...)
	}
	return items
}
