// Package concept maps canonical financial concepts to the provider tags
// used by filing taxonomies, and resolves concept values out of extracted
// statement line items.
package concept

import "github.com/sells-group/findata-cli/internal/model"

// Concept is a canonical financial line-item identifier, independent of
// any specific filing taxonomy.
type Concept string

const (
	Assets              Concept = "Assets"
	Liabilities         Concept = "Liabilities"
	StockholdersEquity  Concept = "StockholdersEquity"
	CurrentAssets       Concept = "CurrentAssets"
	CurrentLiabilities  Concept = "CurrentLiabilities"
	Cash                Concept = "Cash"
	Revenue             Concept = "Revenue"
	GrossProfit         Concept = "GrossProfit"
	OperatingIncome     Concept = "OperatingIncome"
	NetIncome           Concept = "NetIncome"
	OperatingCashFlow   Concept = "OperatingCashFlow"
	CapitalExpenditures Concept = "CapitalExpenditures"
	LongTermDebt        Concept = "LongTermDebt"
	InterestExpense     Concept = "InterestExpense"
	SharesOutstanding   Concept = "SharesOutstanding"
)

// All lists every canonical concept the engine extracts.
func All() []Concept {
	return []Concept{
		Assets, Liabilities, StockholdersEquity,
		CurrentAssets, CurrentLiabilities, Cash,
		Revenue, GrossProfit, OperatingIncome, NetIncome,
		OperatingCashFlow, CapitalExpenditures,
		LongTermDebt, InterestExpense, SharesOutstanding,
	}
}

// statementOf classifies each concept into the statement it belongs to.
var statementOf = map[Concept]model.StatementType{
	Assets:              model.StatementBalanceSheet,
	Liabilities:         model.StatementBalanceSheet,
	StockholdersEquity:  model.StatementBalanceSheet,
	CurrentAssets:       model.StatementBalanceSheet,
	CurrentLiabilities:  model.StatementBalanceSheet,
	Cash:                model.StatementBalanceSheet,
	LongTermDebt:        model.StatementBalanceSheet,
	SharesOutstanding:   model.StatementBalanceSheet,
	Revenue:             model.StatementIncome,
	GrossProfit:         model.StatementIncome,
	OperatingIncome:     model.StatementIncome,
	NetIncome:           model.StatementIncome,
	InterestExpense:     model.StatementIncome,
	OperatingCashFlow:   model.StatementCashFlow,
	CapitalExpenditures: model.StatementCashFlow,
}

// StatementOf returns the statement type a canonical concept belongs to.
func (c Concept) StatementOf() model.StatementType {
	if st, ok := statementOf[c]; ok {
		return st
	}
	return model.StatementIncome
}

// totals are statement roll-up concepts whose line items subsume the
// detail rows beneath them.
var totals = map[Concept]bool{
	Assets:             true,
	Liabilities:        true,
	StockholdersEquity: true,
	CurrentAssets:      true,
	CurrentLiabilities: true,
}

// Total reports whether the concept is a statement roll-up total rather
// than a detail line. Totals stay resolvable; the marker keeps report
// rendering from summing them together with detail rows.
func (c Concept) Total() bool {
	return totals[c]
}
