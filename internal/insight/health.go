package insight

import (
	"math"

	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
)

// Health band thresholds, applied to the unrounded score.
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
	FairThreshold      = 40
)

var healthAdvice = map[model.HealthLevel]string{
	model.HealthExcellent: "Great job! You're managing your finances very well.",
	model.HealthGood:      "You're doing well. Consider increasing your savings rate.",
	model.HealthFair:      "Your finances need attention. Try to reduce unnecessary expenses.",
	model.HealthPoor:      "Immediate action needed. Review your spending habits and create a budget.",
}

// Advice returns the fixed advisory text of a health level.
func Advice(level model.HealthLevel) string {
	return healthAdvice[level]
}

// FinancialHealth scores the savings rate of txns on a 0-100 scale. Without
// income the score is 0.
func FinancialHealth(txns []model.Transaction) model.HealthReport {
	income, expenses := totals(txns)
	score := healthScore(income, expenses)
	level := healthLevel(score)

	return model.HealthReport{
		Score:         int(math.Round(score)),
		Level:         level,
		Advice:        Advice(level),
		TotalIncome:   income,
		TotalExpenses: expenses,
		Savings:       income.Sub(expenses),
	}
}

func healthScore(income, expenses decimal.Decimal) float64 {
	if !income.IsPositive() {
		return 0
	}
	rate := income.Sub(expenses).Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return math.Min(100, math.Max(0, rate))
}

func healthLevel(score float64) model.HealthLevel {
	switch {
	case score >= ExcellentThreshold:
		return model.HealthExcellent
	case score >= GoodThreshold:
		return model.HealthGood
	case score >= FairThreshold:
		return model.HealthFair
	default:
		return model.HealthPoor
	}
}

func totals(txns []model.Transaction) (income, expenses decimal.Decimal) {
	for _, t := range txns {
		switch {
		case t.IsIncome():
			income = income.Add(t.Amount)
		case t.IsExpense():
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}

// Summarize totals income and expenses and keeps the first RecentCount
// transactions, which are the newest when txns come from a
// TransactionSource.
func Summarize(txns []model.Transaction) Dashboard {
	income, expenses := totals(txns)
	recent := txns
	if len(recent) > RecentCount {
		recent = recent[:RecentCount]
	}
	return Dashboard{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		Recent:        append([]model.Transaction{}, recent...),
		HealthScore:   int(math.Round(healthScore(income, expenses))),
	}
}

// CategoryTotals sums expense amounts per category in canonical category
// order. Uncategorized expenses are reported as Other.
func CategoryTotals(txns []model.Transaction) []CategoryTotal {
	sums := make(map[model.Category]decimal.Decimal)
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		category := t.Category
		if !category.IsValid() {
			category = model.CategoryOther
		}
		sums[category] = sums[category].Add(t.Amount)
	}

	result := []CategoryTotal{}
	for _, c := range model.Categories {
		if total, ok := sums[c]; ok {
			result = append(result, CategoryTotal{Category: c, Total: total})
		}
	}
	return result
}
