package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/findata-cli/internal/export"
	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/model"
)

var (
	exportOut        string
	exportFilingType string
	exportPeriod     string
)

var exportCmd = &cobra.Command{
	Use:   "export <company>",
	Short: "Export financials to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, st, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		data, err := m.GetFinancials(ctx, manager.Request{
			CompanyID:  args[0],
			FilingType: model.FilingType(exportFilingType),
			Period:     exportPeriod,
		})
		if err != nil {
			return err
		}
		if err := export.WriteWorkbook(exportOut, data); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "financials.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportFilingType, "type", "10-K", "filing type")
	exportCmd.Flags().StringVar(&exportPeriod, "period", "", "fiscal period end, latest when empty")
	rootCmd.AddCommand(exportCmd)
}
