package xbrl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/model"
)

const sampleFacts = `{
  "cik": 320193,
  "entityName": "Test Corp",
  "facts": {
    "us-gaap": {
      "Assets": {
        "label": "Total Assets",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 1000, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01"},
            {"end": "2023-12-31", "val": 900, "accn": "0001-23-000001", "fy": 2023, "fp": "FY", "form": "10-K", "filed": "2024-02-01"},
            {"end": "2023-12-31", "val": 910, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01"}
          ]
        }
      },
      "Liabilities": {
        "label": "Total Liabilities",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 700, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01"}
          ]
        }
      },
      "Revenues": {
        "label": "Revenues",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 500, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01"},
            {"end": "2024-12-31", "val": 300, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01", "segment": "us-gaap:ProductMember"}
          ]
        }
      },
      "NetCashProvidedByUsedInOperatingActivities": {
        "label": "Operating Cash Flow",
        "units": {
          "USD": [
            {"end": "2024-12-31", "val": 120, "accn": "0001-24-000001", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2025-02-01"}
          ]
        }
      },
      "UnregisteredTag": {
        "label": "Ignored",
        "units": {"USD": [{"end": "2024-12-31", "val": 1, "form": "10-K", "filed": "2025-02-01"}]}
      }
    }
  }
}`

func TestParseCompanyFacts(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)
	assert.Equal(t, 320193, facts.CIK)
	assert.Equal(t, "Test Corp", facts.EntityName)
	assert.Contains(t, facts.Facts, "us-gaap")
}

func TestParseCompanyFacts_Malformed(t *testing.T) {
	_, err := ParseCompanyFacts(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestBuildSnapshots(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	reg := concept.DefaultRegistry()
	snapshots := BuildSnapshots(facts, "320193", reg, []model.FilingType{model.FilingAnnual}, 2)
	require.NotEmpty(t, snapshots)

	var balance, income, cashflow *model.StatementSnapshot
	for i := range snapshots {
		s := &snapshots[i]
		if s.Period != "2024-12-31" {
			continue
		}
		switch s.StatementType {
		case model.StatementBalanceSheet:
			balance = s
		case model.StatementIncome:
			income = s
		case model.StatementCashFlow:
			cashflow = s
		}
	}

	require.NotNil(t, balance)
	require.NotNil(t, income)
	require.NotNil(t, cashflow)

	assert.Equal(t, model.FilingAnnual, balance.FilingType)
	assert.Equal(t, "0001-24-000001", balance.Accession)

	// Balance sheet has Assets and Liabilities; unregistered tags dropped.
	tags := make(map[string]float64)
	for _, it := range balance.Items {
		tags[it.Concept] = *it.Value
	}
	assert.Equal(t, 1000.0, tags["Assets"])
	assert.Equal(t, 700.0, tags["Liabilities"])
	assert.NotContains(t, tags, "UnregisteredTag")

	// Income statement carries both consolidated and segment revenue rows.
	var consolidated, segmented int
	for _, it := range income.Items {
		if it.Concept != "Revenues" {
			continue
		}
		if it.Dimension == "" {
			consolidated++
			assert.Equal(t, 500.0, *it.Value)
		} else {
			segmented++
		}
	}
	assert.Equal(t, 1, consolidated)
	assert.Equal(t, 1, segmented)
}

func TestBuildSnapshots_TotalsMarked(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	snapshots := BuildSnapshots(facts, "320193", concept.DefaultRegistry(), []model.FilingType{model.FilingAnnual}, 2)
	require.NotEmpty(t, snapshots)

	// Roll-up totals carry the marker; detail lines like revenue do not.
	var checkedTotal, checkedDetail bool
	for _, s := range snapshots {
		for _, it := range s.Items {
			switch it.Concept {
			case "Assets", "Liabilities":
				assert.True(t, it.IsTotalOrHeader, "%s is a roll-up total", it.Concept)
				checkedTotal = true
			case "Revenues", "NetIncomeLoss":
				assert.False(t, it.IsTotalOrHeader, "%s is a detail line", it.Concept)
				checkedDetail = true
			}
		}
	}
	assert.True(t, checkedTotal)
	assert.True(t, checkedDetail)
}

func TestBuildSnapshots_RestatementWins(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	reg := concept.DefaultRegistry()
	snapshots := BuildSnapshots(facts, "320193", reg, []model.FilingType{model.FilingAnnual}, 2)

	// The 2023 assets value was restated from 900 to 910 in the later
	// filing; the later filed value wins.
	for _, s := range snapshots {
		if s.Period != "2023-12-31" || s.StatementType != model.StatementBalanceSheet {
			continue
		}
		for _, it := range s.Items {
			if it.Concept == "Assets" {
				assert.Equal(t, 910.0, *it.Value)
				return
			}
		}
	}
	t.Fatal("2023 balance sheet not found")
}

func TestBuildSnapshots_PeriodLimit(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	snapshots := BuildSnapshots(facts, "320193", concept.DefaultRegistry(), []model.FilingType{model.FilingAnnual}, 1)
	for _, s := range snapshots {
		assert.Equal(t, "2024-12-31", s.Period)
	}
}

func TestBuildSnapshots_FilingTypeFilter(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	snapshots := BuildSnapshots(facts, "320193", concept.DefaultRegistry(), []model.FilingType{model.FilingQuarterly}, 4)
	assert.Empty(t, snapshots)
}

func TestFilingTypeForForm(t *testing.T) {
	tests := []struct {
		form string
		want model.FilingType
		ok   bool
	}{
		{"10-K", model.FilingAnnual, true},
		{"10-K/A", model.FilingAnnual, true},
		{"10-Q", model.FilingQuarterly, true},
		{"20-F", model.FilingForeignAnnual, true},
		{"6-K", model.FilingForeignInterim, true},
		{"8-K", "", false},
	}
	for _, tt := range tests {
		ft, ok := filingTypeForForm(tt.form)
		assert.Equal(t, tt.ok, ok, tt.form)
		if ok {
			assert.Equal(t, tt.want, ft, tt.form)
		}
	}
}
