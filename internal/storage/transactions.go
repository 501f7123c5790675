package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, hash, date, description, amount, type, category, category_source`

// SaveTransactions stores transactions, skipping any whose hash already
// exists. Missing IDs and hashes are generated. It returns how many rows
// were inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", classifyError(err))
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}

		result, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.UserID,
			txn.Hash,
			txn.Day(),
			txn.Description,
			txn.Amount.String(),
			string(txn.Type),
			nullableCategory(txn.Category),
			nullableSource(txn),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, classifyError(err))
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

// GetTransactions returns a user's transactions, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, s.db, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC, id
	`, userID)
}

// GetCategorizedTransactions returns a user's transactions whose category
// the user chose or confirmed, oldest first. Predicted and rule-based labels
// are excluded.
func (s *SQLiteStorage) GetCategorizedTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, s.db, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND category_source = 'user' AND category IS NOT NULL AND category != ''
		ORDER BY date ASC, id
	`, userID)
}

// GetTransactionByID returns one of a user's transactions.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	txns, err := s.queryTransactions(ctx, s.db, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, common.ErrNotFound
	}
	return &txns[0], nil
}

// UpdateTransactionCategory records the user's category for one of their
// transactions, marking it confirmed.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, userID, id string, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if !category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, category)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category = ?, category_source = 'user' WHERE user_id = ? AND id = ?`,
		string(category), userID, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, classifyError(err))
	}
	return requireAffected(result, id)
}

// DeleteTransaction removes one of a user's transactions.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, classifyError(err))
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		txn      model.Transaction
		date     time.Time
		amount   string
		txType   string
		category sql.NullString
		source   sql.NullString
	)
	if err := rows.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Hash,
		&date,
		&txn.Description,
		&amount,
		&txType,
		&category,
		&source,
	); err != nil {
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return txn, fmt.Errorf("%w: transaction %s has amount %q", common.ErrDatabaseCorrupted, txn.ID, amount)
	}
	txn.Amount = parsed
	txn.Date = date.UTC()
	txn.Type = model.TransactionType(txType)
	if category.Valid {
		txn.Category = model.Category(category.String)
	}
	if source.Valid && txn.Category != "" {
		txn.CategorySource = model.CategorySource(source.String)
	}
	return txn, nil
}

func nullableCategory(c model.Category) any {
	if c == "" {
		return nil
	}
	return string(c)
}

// nullableSource stores no source for uncategorized rows and treats an
// unattributed category as a prediction.
func nullableSource(txn model.Transaction) any {
	switch {
	case txn.Category == "":
		return nil
	case txn.CategorySource == "":
		return string(model.SourcePredicted)
	default:
		return string(txn.CategorySource)
	}
}
