package anomaly_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/spice-insight/internal/anomaly"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyWithOutlier() []model.Transaction {
	txns := make([]model.Transaction, 0, 20)
	for i := 0; i < 19; i++ {
		txns = append(txns, testutil.Expense(
			fmt.Sprintf("grocery store visit %d", i),
			45+float64(i%5)*2,
			model.CategoryFood,
			fmt.Sprintf("2024-03-%02d", i+1),
		))
	}
	return append(txns, testutil.Expense("new laptop purchase", 5000, model.CategoryShopping, "2024-03-20"))
}

func TestDetectAnomalies_FlagsOutlier(t *testing.T) {
	d := anomaly.NewDetector()

	records := d.DetectAnomalies(historyWithOutlier())

	require.NotEmpty(t, records)
	var found bool
	for _, r := range records {
		assert.Less(t, r.Score, 0.0)
		if r.Amount.Equal(decimal.NewFromInt(5000)) {
			found = true
			assert.Contains(t, r.Reason, anomaly.ReasonHighAmount)
			assert.Equal(t, model.CategoryShopping, r.Category)
		}
	}
	assert.True(t, found, "expected the 5000 purchase to be flagged")
	assert.LessOrEqual(t, len(records), 4)
}

func TestDetectAnomalies_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		expenses int
		income   int
		wantNone bool
	}{
		{name: "empty", wantNone: true},
		{name: "nine expenses", expenses: 9, wantNone: true},
		{name: "ten with four expenses", expenses: 4, income: 6, wantNone: true},
		{name: "ten with five expenses", expenses: 5, income: 5},
		{name: "twenty expenses", expenses: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txns []model.Transaction
			txns = append(txns, testutil.DailyExpenses("2024-01-01", tt.expenses, 20, 35, 50, 900)...)
			for i := 0; i < tt.income; i++ {
				txns = append(txns, testutil.Income("salary deposit", 3000, fmt.Sprintf("2024-02-%02d", i+1)))
			}

			records := anomaly.NewDetector().DetectAnomalies(txns)

			require.NotNil(t, records)
			if tt.wantNone {
				assert.Empty(t, records)
				return
			}
			assert.LessOrEqual(t, len(records), tt.expenses)
			for _, r := range records {
				assert.NotEqual(t, model.CategoryIncome, r.Category)
			}
		})
	}
}

func TestDetectAnomalies_Deterministic(t *testing.T) {
	txns := historyWithOutlier()

	first := anomaly.NewDetector().DetectAnomalies(txns)
	second := anomaly.NewDetector().DetectAnomalies(txns)

	assert.Equal(t, first, second)
}

func TestDetectAnomalies_InvalidContamination(t *testing.T) {
	d := anomaly.NewDetector(anomaly.WithContamination(0.9))

	records := d.DetectAnomalies(historyWithOutlier())

	assert.NotNil(t, records)
	assert.Empty(t, records)
	_, err := d.CalculateAnomalyScore(historyWithOutlier()[0])
	assert.ErrorIs(t, err, anomaly.ErrNotFitted)
}

func TestCalculateAnomalyScore(t *testing.T) {
	d := anomaly.NewDetector()
	txn := testutil.Expense("coffee", 4.5, model.CategoryFood, "2024-03-01")

	_, err := d.CalculateAnomalyScore(txn)
	require.ErrorIs(t, err, anomaly.ErrNotFitted)

	history := historyWithOutlier()
	records := d.DetectAnomalies(history)
	require.NotEmpty(t, records)

	outlier := history[len(history)-1]
	score, err := d.CalculateAnomalyScore(outlier)
	require.NoError(t, err)
	assert.Less(t, score, 0.0)

	for _, r := range records {
		if r.Amount.Equal(outlier.Amount) {
			assert.InDelta(t, r.Score, score, 1e-12)
		}
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		txn  model.Transaction
		want string
	}{
		{
			name: "high amount",
			txn:  testutil.Expense("designer sofa", 1200, model.CategoryShopping, "2024-01-05"),
			want: anomaly.ReasonHighAmount,
		},
		{
			name: "exactly threshold is not high",
			txn:  testutil.Expense("monthly rent", 500, model.CategoryBills, "2024-01-05"),
			want: anomaly.ReasonUnusualPattern,
		},
		{
			name: "short description",
			txn:  testutil.Expense("xy", 20, model.CategoryFood, "2024-01-05"),
			want: anomaly.ReasonShortDescription,
		},
		{
			name: "uncategorized",
			txn:  testutil.Expense("mystery charge", 20, model.CategoryOther, "2024-01-05"),
			want: anomaly.ReasonUncategorized,
		},
		{
			name: "all reasons in order",
			txn:  testutil.Expense("zz", 750, model.CategoryOther, "2024-01-05"),
			want: "Unusually high amount, Very short description, Uncategorized transaction",
		},
		{
			name: "multibyte description counts runes",
			txn:  testutil.Expense("café", 20, model.CategoryFood, "2024-01-05"),
			want: anomaly.ReasonUnusualPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anomaly.Reason(tt.txn))
		})
	}
}

func TestFeatureVector(t *testing.T) {
	txn := testutil.Expense("uber ride", 25.5, model.CategoryTransportation, "2024-01-01")

	assert.Equal(t, []float64{25.5, 9, 2, 738886}, anomaly.FeatureVector(txn))

	txn.Category = ""
	assert.Equal(t, float64(8), anomaly.FeatureVector(txn)[2])
}

func TestDateOrdinal(t *testing.T) {
	tests := []struct {
		date time.Time
		want float64
	}{
		{date: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), want: 1},
		{date: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), want: 719163},
		{date: time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), want: 738886},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, anomaly.DateOrdinal(tt.date))
		})
	}
}
