package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/findata-cli/internal/model"
)

func sampleData() *model.FinancialData {
	return &model.FinancialData{
		CompanyID: "320193",
		Statements: []model.StatementSnapshot{{
			CompanyID:     "320193",
			FilingType:    model.FilingAnnual,
			StatementType: model.StatementBalanceSheet,
			Period:        "2023-09-30",
			Items: []model.StatementLineItem{
				{Concept: "Assets", Label: "Total assets", Value: model.Float64(1000), Unit: "USD"},
				{Concept: "Liabilities", Label: "Total liabilities", Value: nil, Unit: "USD"},
			},
		}},
		Ratios: &model.RatioSet{
			Period: "2023-09-30",
			Profitability: model.ProfitabilityRatios{
				NetMargin: model.Float64(0.2),
			},
			Growth: map[string]*float64{"revenue": model.Float64(0.1)},
		},
		Verification: &model.VerificationResult{Passed: true, DifferencePct: model.Float64(0)},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleData()))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	statements := file.Sheet["Statements"]
	require.NotNil(t, statements)
	require.GreaterOrEqual(t, len(statements.Rows), 3)
	assert.Equal(t, "Statement", statements.Rows[0].Cells[0].String())
	assert.Equal(t, "Assets", statements.Rows[1].Cells[2].String())
	v, err := statements.Rows[1].Cells[4].Float()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, v)
	assert.Empty(t, statements.Rows[2].Cells[4].String(), "absent values stay blank")

	ratios := file.Sheet["Ratios"]
	require.NotNil(t, ratios)
	var foundNetMargin, foundGrowth bool
	for _, row := range ratios.Rows[1:] {
		if len(row.Cells) < 3 {
			continue
		}
		switch row.Cells[1].String() {
		case "net_margin":
			foundNetMargin = true
			v, err := row.Cells[2].Float()
			require.NoError(t, err)
			assert.InDelta(t, 0.2, v, 1e-9)
		case "revenue":
			foundGrowth = true
			assert.Equal(t, "growth", row.Cells[0].String())
		}
	}
	assert.True(t, foundNetMargin)
	assert.True(t, foundGrowth)
}

func TestWriteWorkbookNilData(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "out.xlsx"), nil)
	require.Error(t, err)
}
