// Package verify checks extracted balance sheets against the accounting
// identity Assets = Liabilities + Equity.
package verify

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/model"
)

// DefaultTolerancePct is the allowed relative difference, in percent,
// before a balance sheet is reported out of balance. Rounding in filed
// statements makes exact equality too strict.
const DefaultTolerancePct = 0.1

// Verifier evaluates the balance sheet identity for a period's line items.
type Verifier struct {
	resolver     *concept.Resolver
	tolerancePct float64
}

func New(resolver *concept.Resolver, tolerancePct float64) *Verifier {
	if tolerancePct <= 0 {
		tolerancePct = DefaultTolerancePct
	}
	return &Verifier{resolver: resolver, tolerancePct: tolerancePct}
}

// BalanceSheet resolves total assets, liabilities and equity from items
// and checks Assets = Liabilities + Equity within the tolerance.
//
// When liabilities are not reported directly they are derived as
// Assets - Equity and the result is flagged, since the check is then
// tautological. Missing assets or equity makes verification impossible
// and the result reports failure with a reason rather than guessing.
func (v *Verifier) BalanceSheet(items []model.StatementLineItem) model.VerificationResult {
	assets := v.resolver.Value(items, concept.Assets)
	liabilities := v.resolver.Value(items, concept.Liabilities)
	equity := v.resolver.Value(items, concept.StockholdersEquity)

	result := model.VerificationResult{
		AssetsTotal:      assets,
		LiabilitiesTotal: liabilities,
		EquityTotal:      equity,
	}

	if assets == nil || equity == nil {
		result.Reason = "insufficient data: assets or equity not reported"
		return result
	}
	if *assets == 0 {
		result.NotApplicable = true
		result.Reason = "assets total is zero"
		return result
	}

	if liabilities == nil {
		derived := *assets - *equity
		result.LiabilitiesTotal = &derived
		result.LiabilitiesDerived = true
		liabilities = &derived
		zap.L().Debug("liabilities derived from assets and equity",
			zap.Float64("derived", derived))
	}

	diff := math.Abs(*assets-(*liabilities+*equity)) / math.Abs(*assets) * 100
	result.DifferencePct = &diff
	result.Passed = diff <= v.tolerancePct
	if !result.Passed {
		result.Reason = "balance sheet identity out of tolerance"
	}
	return result
}
