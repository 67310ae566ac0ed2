package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/findata-cli/internal/model"
)

var (
	cacheFilingType string
	cachePeriod     string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the filing cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status <company>",
	Short: "Show cached periods and last fetch for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		company := args[0]
		last, err := st.LastFetch(ctx, company)
		if err != nil {
			return err
		}
		if last == nil {
			fmt.Printf("%s: never fetched\n", company)
		} else {
			fmt.Printf("%s: last fetched %s\n", company, last.Format("2006-01-02 15:04:05 MST"))
		}

		for _, ft := range append(model.DomesticFilingTypes(), model.ForeignFilingTypes()...) {
			periods, err := st.ListPeriods(ctx, company, ft)
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				continue
			}
			fmt.Printf("  %-5s %s\n", ft, strings.Join(periods, ", "))
		}
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <company>",
	Short: "Drop cached entries so the next request refetches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		company := args[0]
		ft := model.FilingType(cacheFilingType)
		if cachePeriod != "" {
			if err := st.Invalidate(ctx, company, ft, cachePeriod); err != nil {
				return err
			}
			fmt.Printf("Invalidated %s %s %s\n", company, ft, cachePeriod)
			return nil
		}

		periods, err := st.ListPeriods(ctx, company, ft)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			return eris.Errorf("no cached entries for %s %s", company, ft)
		}
		for _, p := range periods {
			if err := st.Invalidate(ctx, company, ft, p); err != nil {
				return err
			}
		}
		fmt.Printf("Invalidated %d entries for %s %s\n", len(periods), company, ft)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().StringVar(&cacheFilingType, "type", "10-K", "filing type")
	cacheInvalidateCmd.Flags().StringVar(&cachePeriod, "period", "", "single period to drop, all when empty")
	cacheCmd.AddCommand(cacheStatusCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
