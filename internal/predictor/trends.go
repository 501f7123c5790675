// Package predictor summarises spending history and extrapolates daily
// spending with a least-squares trend line.
package predictor

import (
	"fmt"
	"sort"

	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// TopCategoryCount is how many categories a trend summary ranks.
const TopCategoryCount = 3

// MessageInsufficientAnalysis explains an empty trend summary.
const MessageInsufficientAnalysis = "Insufficient data for analysis"

// AnalyzeSpendingTrends computes monthly expense statistics and the most
// frequent expense categories. Volatility is the sample standard deviation
// of monthly totals and is zero for a single month.
func AnalyzeSpendingTrends(transactions []model.Transaction) model.TrendSummary {
	if len(transactions) == 0 {
		return model.TrendSummary{
			AnalysisPeriod: periodLabel(0),
			Message:        MessageInsufficientAnalysis,
			TopCategories:  []model.CategoryCount{},
		}
	}

	monthly := monthlyExpenses(transactions)
	summary := model.TrendSummary{
		AnalysisPeriod:    periodLabel(len(monthly)),
		TopCategories:     topCategories(transactions, TopCategoryCount),
		TotalTransactions: len(transactions),
		MonthsObserved:    len(monthly),
	}
	if len(monthly) > 0 {
		summary.AverageMonthlySpending = stat.Mean(monthly, nil)
	}
	if len(monthly) > 1 {
		summary.SpendingVolatility = stat.StdDev(monthly, nil)
	}
	return summary
}

func periodLabel(months int) string {
	return fmt.Sprintf("%d months", months)
}

// monthlyExpenses returns expense totals per calendar month in month order.
func monthlyExpenses(transactions []model.Transaction) []float64 {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		key := t.Day().Format("2006-01")
		totals[key] = totals[key].Add(t.Amount)
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = totals[m].InexactFloat64()
	}
	return values
}

// topCategories ranks expense categories by transaction count, breaking
// ties alphabetically. Uncategorized expenses count as Other.
func topCategories(transactions []model.Transaction, limit int) []model.CategoryCount {
	counts := make(map[model.Category]int)
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		category := t.Category
		if category == "" {
			category = model.CategoryOther
		}
		counts[category]++
	}

	ranked := make([]model.CategoryCount, 0, len(counts))
	for category, count := range counts {
		ranked = append(ranked, model.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Category < ranked[j].Category
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
