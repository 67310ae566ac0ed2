package model

// VerificationResult records the outcome of checking the accounting
// identity Assets = Liabilities + Equity on a balance sheet snapshot.
type VerificationResult struct {
	AssetsTotal      *float64 `json:"assets_total,omitempty"`
	LiabilitiesTotal *float64 `json:"liabilities_total,omitempty"`
	EquityTotal      *float64 `json:"equity_total,omitempty"`
	Passed           bool     `json:"passed"`
	DifferencePct    *float64 `json:"difference_pct,omitempty"`
	// LiabilitiesDerived is set when liabilities were computed as
	// assets - equity rather than independently reported.
	LiabilitiesDerived bool `json:"liabilities_derived,omitempty"`
	// NotApplicable is set when the identity cannot be evaluated
	// (assets zero); distinct from a failure.
	NotApplicable bool   `json:"not_applicable,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// ProfitabilityRatios are margin and return ratios. Nil means the required
// inputs were missing; never zero as a stand-in.
type ProfitabilityRatios struct {
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"`
	ReturnOnAssets  *float64 `json:"return_on_assets,omitempty"`
	ReturnOnEquity  *float64 `json:"return_on_equity,omitempty"`
}

// LiquidityRatios measure short-term coverage.
type LiquidityRatios struct {
	CurrentRatio   *float64 `json:"current_ratio,omitempty"`
	CashRatio      *float64 `json:"cash_ratio,omitempty"`
	WorkingCapital *float64 `json:"working_capital,omitempty"`
}

// LeverageRatios measure debt load.
type LeverageRatios struct {
	DebtToAssets *float64 `json:"debt_to_assets,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
}

// EfficiencyRatios measure asset utilization.
type EfficiencyRatios struct {
	AssetTurnover *float64 `json:"asset_turnover,omitempty"`
}

// CashFlowRatios measure cash generation quality.
type CashFlowRatios struct {
	FreeCashFlow   *float64 `json:"free_cash_flow,omitempty"`
	OCFToNetIncome *float64 `json:"ocf_to_net_income,omitempty"`
}

// RatioSet is the categorized ratio output for one period, with optional
// period-over-period growth. Ratios are plain fractions, not percentages;
// formatting belongs to the caller. A RatioSet is always recomputed from
// its snapshot, never cached independently.
type RatioSet struct {
	Profitability ProfitabilityRatios `json:"profitability"`
	Liquidity     LiquidityRatios     `json:"liquidity"`
	Leverage      LeverageRatios      `json:"leverage"`
	Efficiency    EfficiencyRatios    `json:"efficiency"`
	CashFlow      CashFlowRatios      `json:"cash_flow"`
	// Growth maps metric name (revenue, net_income, ...) to the
	// period-over-period fractional change.
	Growth       map[string]*float64 `json:"growth,omitempty"`
	Period       string              `json:"period,omitempty"`
	PriorPeriod  string              `json:"prior_period,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}
