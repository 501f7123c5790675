package insight_test

import (
	"testing"

	"github.com/Veraticus/spice-insight/internal/insight"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialHealth(t *testing.T) {
	tests := []struct {
		name      string
		income    float64
		expenses  float64
		wantScore int
		wantLevel model.HealthLevel
	}{
		{name: "no income", income: 0, expenses: 200, wantScore: 0, wantLevel: model.HealthPoor},
		{name: "nothing at all", wantScore: 0, wantLevel: model.HealthPoor},
		{name: "good", income: 1000, expenses: 400, wantScore: 60, wantLevel: model.HealthGood},
		{name: "excellent", income: 1000, expenses: 100, wantScore: 90, wantLevel: model.HealthExcellent},
		{name: "no expenses", income: 1000, wantScore: 100, wantLevel: model.HealthExcellent},
		{name: "fair", income: 1000, expenses: 550, wantScore: 45, wantLevel: model.HealthFair},
		{name: "overspent clamps at zero", income: 1000, expenses: 1500, wantScore: 0, wantLevel: model.HealthPoor},
		{name: "band uses unrounded score", income: 1000, expenses: 600.4, wantScore: 40, wantLevel: model.HealthPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txns []model.Transaction
			if tt.income > 0 {
				txns = append(txns, testutil.Income("salary payment", tt.income, "2024-01-31"))
			}
			if tt.expenses > 0 {
				txns = append(txns, testutil.Expense("rent payment", tt.expenses, model.CategoryBills, "2024-01-01"))
			}

			report := insight.FinancialHealth(txns)

			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantLevel, report.Level)
			assert.Equal(t, insight.Advice(tt.wantLevel), report.Advice)
			assert.NotEmpty(t, report.Advice)
			assert.True(t, report.Savings.Equal(report.TotalIncome.Sub(report.TotalExpenses)))
		})
	}
}

func TestFinancialHealth_Totals(t *testing.T) {
	txns := []model.Transaction{
		testutil.Income("salary payment", 1000, "2024-01-31"),
		testutil.Expense("groceries", 150.25, model.CategoryFood, "2024-01-02"),
		testutil.Expense("rent", 249.75, model.CategoryBills, "2024-01-01"),
	}

	report := insight.FinancialHealth(txns)

	assert.True(t, decimal.NewFromInt(1000).Equal(report.TotalIncome))
	assert.True(t, decimal.NewFromInt(400).Equal(report.TotalExpenses))
	assert.True(t, decimal.NewFromInt(600).Equal(report.Savings))
	assert.Equal(t, 60, report.Score)
	assert.Equal(t, model.HealthGood, report.Level)
}

func TestSummarize(t *testing.T) {
	txns := []model.Transaction{
		testutil.Expense("coffee", 5, model.CategoryFood, "2024-01-07"),
		testutil.Expense("lunch", 15, model.CategoryFood, "2024-01-06"),
		testutil.Income("salary payment", 1000, "2024-01-05"),
		testutil.Expense("taxi", 20, model.CategoryTransportation, "2024-01-04"),
		testutil.Expense("book", 10, model.CategoryEducation, "2024-01-03"),
		testutil.Expense("cinema", 50, model.CategoryEntertainment, "2024-01-02"),
	}

	d := insight.Summarize(txns)

	assert.True(t, decimal.NewFromInt(1000).Equal(d.TotalIncome))
	assert.True(t, decimal.NewFromInt(100).Equal(d.TotalExpenses))
	assert.True(t, decimal.NewFromInt(900).Equal(d.Balance))
	assert.Equal(t, 90, d.HealthScore)
	require.Len(t, d.Recent, insight.RecentCount)
	assert.Equal(t, "coffee", d.Recent[0].Description)
	assert.Equal(t, "book", d.Recent[4].Description)
}

func TestCategoryTotals(t *testing.T) {
	txns := []model.Transaction{
		testutil.Expense("rent", 900, model.CategoryBills, "2024-01-01"),
		testutil.Expense("coffee", 4.5, model.CategoryFood, "2024-01-02"),
		testutil.Expense("lunch", 12.25, model.CategoryFood, "2024-01-03"),
		testutil.Expense("mystery", 7, "", "2024-01-04"),
		testutil.Income("salary payment", 3000, "2024-01-31"),
	}

	got := insight.CategoryTotals(txns)

	require.Len(t, got, 3)
	assert.Equal(t, model.CategoryFood, got[0].Category)
	assert.True(t, decimal.RequireFromString("16.75").Equal(got[0].Total))
	assert.Equal(t, model.CategoryBills, got[1].Category)
	assert.Equal(t, model.CategoryOther, got[2].Category)
	assert.True(t, decimal.NewFromInt(7).Equal(got[2].Total))

	assert.Empty(t, insight.CategoryTotals(nil))
}
