package concept

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry maps each canonical concept to an ordered list of provider tags.
// The first tag is the preferred (US-GAAP) tag; the rest are fallbacks in
// priority order (renamed GAAP tags, then IFRS equivalents). Resolution
// walks the list and stops at the first tag with any reported value.
type Registry struct {
	aliases map[Concept][]string
}

// DefaultRegistry returns the built-in tag registry covering the US-GAAP
// and IFRS taxonomies plus known deprecated tag names.
func DefaultRegistry() *Registry {
	r := &Registry{aliases: make(map[Concept][]string, len(statementOf))}
	r.register(Assets,
		"Assets",
		"AssetsTotal",
		"ifrs-full:Assets")
	r.register(Liabilities,
		"Liabilities",
		"LiabilitiesTotal",
		"ifrs-full:Liabilities")
	r.register(StockholdersEquity,
		"StockholdersEquity",
		"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
		"ifrs-full:Equity",
		"ifrs-full:EquityAttributableToOwnersOfParent")
	r.register(CurrentAssets,
		"AssetsCurrent",
		"ifrs-full:CurrentAssets")
	r.register(CurrentLiabilities,
		"LiabilitiesCurrent",
		"ifrs-full:CurrentLiabilities")
	r.register(Cash,
		"CashAndCashEquivalentsAtCarryingValue",
		"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents",
		"ifrs-full:CashAndCashEquivalents")
	r.register(Revenue,
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"Revenues",
		"SalesRevenueNet",
		"ifrs-full:Revenue")
	r.register(GrossProfit,
		"GrossProfit",
		"ifrs-full:GrossProfit")
	r.register(OperatingIncome,
		"OperatingIncomeLoss",
		"ifrs-full:ProfitLossFromOperatingActivities")
	r.register(NetIncome,
		"NetIncomeLoss",
		"ProfitLoss",
		"ifrs-full:ProfitLoss")
	r.register(OperatingCashFlow,
		"NetCashProvidedByUsedInOperatingActivities",
		"NetCashProvidedByOperatingActivities",
		"ifrs-full:CashFlowsFromUsedInOperatingActivities")
	r.register(CapitalExpenditures,
		"PaymentsToAcquirePropertyPlantAndEquipment",
		"PaymentsToAcquireProductiveAssets",
		"ifrs-full:PurchaseOfPropertyPlantAndEquipment")
	r.register(LongTermDebt,
		"LongTermDebt",
		"LongTermDebtNoncurrent",
		"ifrs-full:NoncurrentBorrowingsAndCurrentPortionOfNoncurrentBorrowings")
	r.register(InterestExpense,
		"InterestExpense",
		"ifrs-full:InterestExpense")
	r.register(SharesOutstanding,
		"CommonStockSharesOutstanding",
		"dei:EntityCommonStockSharesOutstanding",
		"ifrs-full:NumberOfSharesOutstanding")
	return r
}

func (r *Registry) register(c Concept, tags ...string) {
	r.aliases[c] = tags
}

// Register appends extra fallback tags for a canonical concept. Tags already
// present are not duplicated.
func (r *Registry) Register(c Concept, tags ...string) {
	existing := r.aliases[c]
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		existing = append(existing, t)
	}
	r.aliases[c] = existing
}

// Aliases returns the ordered provider tags registered for the concept.
func (r *Registry) Aliases(c Concept) []string {
	return r.aliases[c]
}

// Tags returns the full set of provider tags across every concept. This is
// the extraction set: facts outside it are not cached.
func (r *Registry) Tags() []string {
	var tags []string
	for _, c := range All() {
		tags = append(tags, r.aliases[c]...)
	}
	return tags
}

// ConceptFor returns the canonical concept a provider tag is registered
// under, walking concepts in stable order.
func (r *Registry) ConceptFor(tag string) (Concept, bool) {
	for _, c := range All() {
		for _, t := range r.aliases[c] {
			if t == tag {
				return c, true
			}
		}
	}
	return "", false
}

// overridesFile is the YAML shape for registry overrides: canonical concept
// name → extra fallback tags.
type overridesFile struct {
	Concepts map[string][]string `yaml:"concepts"`
}

// LoadOverrides merges extra tag aliases from a YAML file into the registry.
// Unknown concept names are rejected so typos do not silently vanish.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "concept: read overrides %s", path)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return eris.Wrapf(err, "concept: parse overrides %s", path)
	}

	known := make(map[Concept]bool, len(statementOf))
	for _, c := range All() {
		known[c] = true
	}

	for name, tags := range f.Concepts {
		c := Concept(name)
		if !known[c] {
			return eris.Errorf("concept: unknown concept %q in overrides", name)
		}
		r.Register(c, tags...)
	}
	return nil
}
