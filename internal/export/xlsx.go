// Package export writes financial data to spreadsheet workbooks for
// report consumers.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/findata-cli/internal/model"
)

// WriteWorkbook renders the statements and ratio set into an xlsx file
// at path. Absent values produce blank cells, never zeros.
func WriteWorkbook(path string, data *model.FinancialData) error {
	if data == nil {
		return eris.New("no data to export")
	}
	file := xlsx.NewFile()

	if err := addStatementsSheet(file, data); err != nil {
		return err
	}
	if err := addRatiosSheet(file, data); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "saving workbook %s", path)
	}
	return nil
}

func addStatementsSheet(file *xlsx.File, data *model.FinancialData) error {
	sheet, err := file.AddSheet("Statements")
	if err != nil {
		return eris.Wrap(err, "adding statements sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Statement", "Period", "Concept", "Label", "Value", "Unit", "Dimension"} {
		header.AddCell().SetString(h)
	}

	for _, snap := range data.Statements {
		for _, item := range snap.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(string(snap.StatementType))
			row.AddCell().SetString(snap.Period)
			row.AddCell().SetString(item.Concept)
			row.AddCell().SetString(item.Label)
			if item.Value != nil {
				row.AddCell().SetFloat(*item.Value)
			} else {
				row.AddCell()
			}
			row.AddCell().SetString(item.Unit)
			row.AddCell().SetString(item.Dimension)
		}
	}
	return nil
}

func addRatiosSheet(file *xlsx.File, data *model.FinancialData) error {
	sheet, err := file.AddSheet("Ratios")
	if err != nil {
		return eris.Wrap(err, "adding ratios sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Category", "Metric", "Value"} {
		header.AddCell().SetString(h)
	}

	r := data.Ratios
	if r == nil {
		return nil
	}

	addRatio := func(category, metric string, v *float64) {
		row := sheet.AddRow()
		row.AddCell().SetString(category)
		row.AddCell().SetString(metric)
		if v != nil {
			row.AddCell().SetFloat(*v)
		} else {
			row.AddCell()
		}
	}

	addRatio("profitability", "gross_margin", r.Profitability.GrossMargin)
	addRatio("profitability", "operating_margin", r.Profitability.OperatingMargin)
	addRatio("profitability", "net_margin", r.Profitability.NetMargin)
	addRatio("profitability", "return_on_assets", r.Profitability.ReturnOnAssets)
	addRatio("profitability", "return_on_equity", r.Profitability.ReturnOnEquity)
	addRatio("liquidity", "current_ratio", r.Liquidity.CurrentRatio)
	addRatio("liquidity", "cash_ratio", r.Liquidity.CashRatio)
	addRatio("liquidity", "working_capital", r.Liquidity.WorkingCapital)
	addRatio("leverage", "debt_to_assets", r.Leverage.DebtToAssets)
	addRatio("leverage", "debt_to_equity", r.Leverage.DebtToEquity)
	addRatio("efficiency", "asset_turnover", r.Efficiency.AssetTurnover)
	addRatio("cash_flow", "free_cash_flow", r.CashFlow.FreeCashFlow)
	addRatio("cash_flow", "ocf_to_net_income", r.CashFlow.OCFToNetIncome)

	for _, key := range []string{"revenue", "net_income", "operating_income", "assets", "equity", "operating_cash_flow"} {
		if v, ok := r.Growth[key]; ok {
			addRatio("growth", key, v)
		}
	}

	if v := data.Verification; v != nil {
		row := sheet.AddRow()
		row.AddCell().SetString("verification")
		row.AddCell().SetString("balance_sheet_passed")
		row.AddCell().SetBool(v.Passed)
		addRatio("verification", "difference_pct", v.DifferencePct)
	}
	return nil
}
