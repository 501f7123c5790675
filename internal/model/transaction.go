// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether money left or entered the account.
type TransactionType string

// Transaction type constants.
const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

// ParseTransactionType converts a raw string into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TypeExpense, TypeIncome:
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type %q", s)
	}
}

// CategorySource records who assigned a transaction's category.
type CategorySource string

// Category sources. Only SourceUser labels count as training history.
const (
	SourcePredicted CategorySource = "predicted"
	SourceRule      CategorySource = "rule"
	SourceUser      CategorySource = "user"
)

// IsValid reports whether s is a known source.
func (s CategorySource) IsValid() bool {
	switch s {
	case SourcePredicted, SourceRule, SourceUser:
		return true
	default:
		return false
	}
}

// Transaction is a single user transaction as handed to the insight engine.
// The engine only reads snapshots; persistence owns the records.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category,omitempty"` // empty when not yet categorized
	// CategorySource is empty exactly when Category is.
	CategorySource CategorySource `json:"category_source,omitempty"`
	Hash           string         `json:"hash"`
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TypeExpense
}

// IsIncome reports whether the transaction is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// Confirmed reports whether the user chose or accepted the category.
func (t Transaction) Confirmed() bool {
	return t.CategorySource == SourceUser && t.Category != ""
}

// AmountFloat returns the amount as a float64 for numeric analysis.
func (t Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

// Day truncates the transaction date to a calendar day in UTC.
func (t Transaction) Day() time.Time {
	y, m, d := t.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Description,
		t.Type)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
