// Package ratio derives financial ratios and period-over-period growth
// from resolved statement line items.
package ratio

import (
	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/model"
)

// Calculator computes ratios from line items for a fiscal period,
// optionally with the prior period for growth rates. Any input that is
// absent or would divide by zero yields an absent ratio, never a zero,
// NaN or Inf.
type Calculator struct {
	resolver *concept.Resolver
}

func New(resolver *concept.Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// growthConcepts maps growth-map keys to the concept whose value is
// compared across periods.
var growthConcepts = []struct {
	key string
	c   concept.Concept
}{
	{"revenue", concept.Revenue},
	{"net_income", concept.NetIncome},
	{"operating_income", concept.OperatingIncome},
	{"assets", concept.Assets},
	{"equity", concept.StockholdersEquity},
	{"operating_cash_flow", concept.OperatingCashFlow},
}

// Calculate computes the full ratio set for the current period.
// prior may be nil when no earlier period is cached; growth is then
// left absent. verification is attached as-is for downstream reporting.
func (calc *Calculator) Calculate(current, prior []model.StatementLineItem, period, priorPeriod string, verification *model.VerificationResult) *model.RatioSet {
	get := func(c concept.Concept) *float64 { return calc.resolver.Value(current, c) }

	revenue := get(concept.Revenue)
	grossProfit := get(concept.GrossProfit)
	operatingIncome := get(concept.OperatingIncome)
	netIncome := get(concept.NetIncome)
	assets := get(concept.Assets)
	equity := get(concept.StockholdersEquity)
	currentAssets := get(concept.CurrentAssets)
	currentLiabilities := get(concept.CurrentLiabilities)
	cash := get(concept.Cash)
	liabilities := get(concept.Liabilities)
	ocf := get(concept.OperatingCashFlow)
	capex := get(concept.CapitalExpenditures)

	if liabilities == nil && verification != nil && verification.LiabilitiesDerived {
		liabilities = verification.LiabilitiesTotal
	}

	set := &model.RatioSet{
		Period:      period,
		PriorPeriod: priorPeriod,
		Profitability: model.ProfitabilityRatios{
			GrossMargin:     div(grossProfit, revenue),
			OperatingMargin: div(operatingIncome, revenue),
			NetMargin:       div(netIncome, revenue),
			ReturnOnAssets:  div(netIncome, assets),
			ReturnOnEquity:  div(netIncome, equity),
		},
		Liquidity: model.LiquidityRatios{
			CurrentRatio:   div(currentAssets, currentLiabilities),
			CashRatio:      div(cash, currentLiabilities),
			WorkingCapital: sub(currentAssets, currentLiabilities),
		},
		Leverage: model.LeverageRatios{
			DebtToAssets: div(liabilities, assets),
			DebtToEquity: div(liabilities, equity),
		},
		Efficiency: model.EfficiencyRatios{
			AssetTurnover: div(revenue, assets),
		},
		CashFlow: model.CashFlowRatios{
			FreeCashFlow:   freeCashFlow(ocf, capex),
			OCFToNetIncome: div(ocf, netIncome),
		},
		Verification: verification,
		Growth:       map[string]*float64{},
	}

	if prior != nil {
		for _, g := range growthConcepts {
			cur := calc.resolver.Value(current, g.c)
			prev := calc.resolver.Value(prior, g.c)
			if rate := growth(cur, prev); rate != nil {
				set.Growth[g.key] = rate
			}
		}
	}
	return set
}

// div returns a/b, or nil when either operand is absent or b is zero.
func div(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	v := *a / *b
	return &v
}

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// freeCashFlow is OCF - CapEx. CapEx is typically filed as a positive
// outflow, so its absolute value is subtracted regardless of sign
// convention.
func freeCashFlow(ocf, capex *float64) *float64 {
	if ocf == nil || capex == nil {
		return nil
	}
	c := *capex
	if c < 0 {
		c = -c
	}
	v := *ocf - c
	return &v
}

// growth is (current - prior) / |prior|, absent when either value is
// missing or the prior value is zero. Dividing by the absolute prior
// keeps the sign meaningful when the base is negative.
func growth(cur, prev *float64) *float64 {
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	base := *prev
	if base < 0 {
		base = -base
	}
	v := (*cur - *prev) / base
	return &v
}
