package main

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name             string
		description      string
		amount           string
		txType           string
		date             string
		category         string
		predictor        categoryPredictor
		expectedAmount   string
		expectedType     model.TransactionType
		expectedCategory model.Category
		expectedSource   model.CategorySource
		expectedDate     time.Time
		expectError      bool
	}{
		{
			name:             "predicted category",
			description:      "Corner Cafe",
			amount:           "4.50",
			txType:           "expense",
			predictor:        &fixedPredictor{category: model.CategoryFood},
			expectedAmount:   "4.5",
			expectedType:     model.TypeExpense,
			expectedCategory: model.CategoryFood,
			expectedSource:   model.SourcePredicted,
			expectedDate:     now,
		},
		{
			name:             "explicit category wins",
			description:      "Bookstore",
			amount:           "$32.99",
			txType:           "expense",
			category:         "Education",
			predictor:        &fixedPredictor{category: model.CategoryShopping},
			expectedAmount:   "32.99",
			expectedType:     model.TypeExpense,
			expectedCategory: model.CategoryEducation,
			expectedSource:   model.SourceUser,
			expectedDate:     now,
		},
		{
			name:             "income without predictor",
			description:      "Acme payroll",
			amount:           "2500",
			txType:           "INCOME",
			date:             "2024-03-01",
			expectedAmount:   "2500",
			expectedType:     model.TypeIncome,
			expectedCategory: model.CategoryIncome,
			expectedSource:   model.SourceRule,
			expectedDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "blank description", description: "  ", amount: "1", txType: "expense", expectError: true},
		{name: "bad amount", description: "x", amount: "ten", txType: "expense", expectError: true},
		{name: "negative amount", description: "x", amount: "-5", txType: "expense", expectError: true},
		{name: "bad type", description: "x", amount: "5", txType: "transfer", expectError: true},
		{name: "bad date", description: "x", amount: "5", txType: "expense", date: "03/01/2024", expectError: true},
		{name: "bad category", description: "x", amount: "5", txType: "expense", category: "Groceries", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := newTransaction("user-1", tt.description, tt.amount, tt.txType, tt.date, tt.category, now, tt.predictor)

			if tt.expectError {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, txn.ID)
			assert.Equal(t, "user-1", txn.UserID)
			assert.True(t, decimal.RequireFromString(tt.expectedAmount).Equal(txn.Amount))
			assert.Equal(t, tt.expectedType, txn.Type)
			assert.Equal(t, tt.expectedCategory, txn.Category)
			assert.Equal(t, tt.expectedSource, txn.CategorySource)
			assert.Equal(t, tt.expectedDate, txn.Date)
			assert.Equal(t, txn.GenerateHash(), txn.Hash)
		})
	}
}

func TestFilterTransactions(t *testing.T) {
	txns := []model.Transaction{
		testutil.Expense("a", 1, model.CategoryFood, "2024-01-05"),
		testutil.Expense("b", 2, "", "2024-01-04"),
		testutil.Predicted(testutil.Expense("c", 3, "", "2024-01-03"), model.CategoryShopping),
		testutil.Expense("d", 4, model.CategoryBills, "2024-01-02"),
	}

	descriptions := func(txns []model.Transaction) []string {
		out := make([]string, 0, len(txns))
		for _, t := range txns {
			out = append(out, t.Description)
		}
		return out
	}

	tests := []struct {
		keep  func(model.Transaction) bool
		name  string
		want  []string
		limit int
	}{
		{name: "all", keep: allTransactions, want: []string{"a", "b", "c", "d"}},
		{name: "all limited", keep: allTransactions, limit: 3, want: []string{"a", "b", "c"}},
		{name: "uncategorized", keep: uncategorizedOnly, want: []string{"b"}},
		{name: "needs review", keep: needsReview, want: []string{"b", "c"}},
		{name: "needs review limited", keep: needsReview, limit: 1, want: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, descriptions(filterTransactions(txns, tt.keep, tt.limit)))
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)

	txn := testutil.Expense("Corner Cafe", 4.5, model.CategoryFood, "2024-03-05")
	txn.UserID = "user-1"
	txn.ID = "txn-1"
	_, err := store.SaveTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)

	require.NoError(t, deleteTransaction(ctx, store, "user-1", "txn-1"))

	err = deleteTransaction(ctx, store, "user-1", "txn-1")
	require.Error(t, err)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "txn-1 not found")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
