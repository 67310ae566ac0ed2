package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/model"
)

var (
	getFilingType string
	getPeriod     string
	getRefresh    bool
	getJSON       bool
)

var getCmd = &cobra.Command{
	Use:   "get <company>",
	Short: "Fetch financials for one company",
	Long: `Fetch statements, verification and ratios for a company.

The company may be a ticker symbol or a CIK number. Results come from
the local cache when fresh; use --refresh to force a source fetch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, st, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		data, err := m.GetFinancials(ctx, manager.Request{
			CompanyID:  args[0],
			FilingType: model.FilingType(getFilingType),
			Period:     getPeriod,
			Refresh:    getRefresh,
		})
		if err != nil {
			return err
		}

		if getJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}
		printFinancials(data)
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getFilingType, "type", "10-K", "filing type (10-K, 10-Q, 20-F, 6-K)")
	getCmd.Flags().StringVar(&getPeriod, "period", "", "fiscal period end (YYYY-MM-DD), latest when empty")
	getCmd.Flags().BoolVar(&getRefresh, "refresh", false, "bypass the cache and refetch")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "emit JSON instead of a report")
	rootCmd.AddCommand(getCmd)
}

func printFinancials(data *model.FinancialData) {
	p := message.NewPrinter(language.English)

	if data.NoData {
		p.Printf("%s: no statements available for the requested filing type and period\n", data.CompanyID)
		return
	}

	p.Printf("Company %s", data.CompanyID)
	if data.Ratios != nil && data.Ratios.Period != "" {
		p.Printf("  period %s", data.Ratios.Period)
	}
	if data.CacheStatus.FromCache {
		p.Printf("  (cached, age %s)", data.CacheStatus.Age.Round(time.Second))
	}
	if data.CacheStatus.ServedStale {
		p.Printf("  [STALE: source unavailable]")
	}
	p.Println()

	if v := data.Verification; v != nil {
		switch {
		case v.NotApplicable:
			p.Printf("Balance sheet check: n/a (%s)\n", v.Reason)
		case v.Passed:
			p.Printf("Balance sheet check: passed")
			if v.LiabilitiesDerived {
				p.Printf(" (liabilities derived)")
			}
			p.Println()
		default:
			p.Printf("Balance sheet check: FAILED (%s)\n", v.Reason)
		}
		if v.AssetsTotal != nil {
			p.Printf("  assets %.0f", *v.AssetsTotal)
			if v.LiabilitiesTotal != nil {
				p.Printf("  liabilities %.0f", *v.LiabilitiesTotal)
			}
			if v.EquityTotal != nil {
				p.Printf("  equity %.0f", *v.EquityTotal)
			}
			p.Println()
		}
	}

	if r := data.Ratios; r != nil {
		p.Println("Ratios:")
		printRatio(p, "gross margin", r.Profitability.GrossMargin, true)
		printRatio(p, "operating margin", r.Profitability.OperatingMargin, true)
		printRatio(p, "net margin", r.Profitability.NetMargin, true)
		printRatio(p, "return on assets", r.Profitability.ReturnOnAssets, true)
		printRatio(p, "return on equity", r.Profitability.ReturnOnEquity, true)
		printRatio(p, "current ratio", r.Liquidity.CurrentRatio, false)
		printRatio(p, "cash ratio", r.Liquidity.CashRatio, false)
		printRatio(p, "working capital", r.Liquidity.WorkingCapital, false)
		printRatio(p, "debt to assets", r.Leverage.DebtToAssets, false)
		printRatio(p, "debt to equity", r.Leverage.DebtToEquity, false)
		printRatio(p, "asset turnover", r.Efficiency.AssetTurnover, false)
		printRatio(p, "free cash flow", r.CashFlow.FreeCashFlow, false)
		printRatio(p, "OCF / net income", r.CashFlow.OCFToNetIncome, false)

		if len(r.Growth) > 0 {
			p.Printf("Growth vs %s:\n", r.PriorPeriod)
			for _, key := range []string{"revenue", "net_income", "operating_income", "assets", "equity", "operating_cash_flow"} {
				if v, ok := r.Growth[key]; ok && v != nil {
					p.Printf("  %-20s %+.1f%%\n", key, *v*100)
				}
			}
		}
	}

	if w := data.CacheStatus.StoreWarning; w != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func printRatio(p *message.Printer, name string, v *float64, pct bool) {
	if v == nil {
		p.Printf("  %-20s n/a\n", name)
		return
	}
	if pct {
		p.Printf("  %-20s %.1f%%\n", name, *v*100)
		return
	}
	p.Printf("  %-20s %.2f\n", name, *v)
}
