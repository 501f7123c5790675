package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
)

// Date parses a YYYY-MM-DD date and panics on malformed input.
func Date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad date %q: %v", s, err))
	}
	return d
}

// Expense builds an expense transaction. A non-empty category counts as
// user-confirmed.
func Expense(description string, amount float64, category model.Category, date string) model.Transaction {
	return build(description, amount, model.TypeExpense, category, date)
}

// Income builds an income transaction.
func Income(description string, amount float64, date string) model.Transaction {
	return build(description, amount, model.TypeIncome, model.CategoryIncome, date)
}

func build(description string, amount float64, txType model.TransactionType, category model.Category, date string) model.Transaction {
	t := model.Transaction{
		UserID:      "user-1",
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
		Type:        txType,
		Category:    category,
		Date:        Date(date),
	}
	if category != "" {
		t.CategorySource = model.SourceUser
	}
	t.Hash = t.GenerateHash()
	t.ID = t.Hash[:12]
	return t
}

// Predicted marks t's category as a model suggestion.
func Predicted(t model.Transaction, category model.Category) model.Transaction {
	t.Category = category
	t.CategorySource = model.SourcePredicted
	return t
}

// DailyExpenses builds one expense per day starting at start, cycling
// through amounts.
func DailyExpenses(start string, days int, amounts ...float64) []model.Transaction {
	if len(amounts) == 0 {
		amounts = []float64{25}
	}
	first := Date(start)
	txns := make([]model.Transaction, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i).Format("2006-01-02")
		txns = append(txns, Expense(
			fmt.Sprintf("grocery run %d", i+1),
			amounts[i%len(amounts)],
			model.CategoryFood,
			day,
		))
	}
	return txns
}
