package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	tests := []struct {
		setup        func(*SQLiteStorage, context.Context)
		validate     func(*testing.T, *SQLiteStorage, context.Context)
		name         string
		transactions []model.Transaction
		wantInserted int
		wantErr      bool
	}{
		{
			name:         "save new transactions",
			transactions: createTestTransactions("user-1", 3),
			wantInserted: 3,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				txns, err := s.GetTransactions(ctx, "user-1")
				if err != nil {
					t.Errorf("Failed to get transactions: %v", err)
				}
				if len(txns) != 3 {
					t.Errorf("Expected 3 transactions, got %d", len(txns))
				}
			},
		},
		{
			name:         "handle duplicate transactions",
			transactions: createTestTransactions("user-1", 2),
			setup: func(s *SQLiteStorage, ctx context.Context) {
				_, _ = s.SaveTransactions(ctx, createTestTransactions("user-1", 2))
			},
			wantInserted: 0,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				txns, err := s.GetTransactions(ctx, "user-1")
				if err != nil {
					t.Errorf("Failed to get transactions: %v", err)
				}
				if len(txns) != 2 {
					t.Errorf("Expected 2 transactions (no duplicates), got %d", len(txns))
				}
			},
		},
		{
			name:         "save empty list",
			transactions: []model.Transaction{},
			wantErr:      true,
		},
		{
			name: "generate missing ID and hash",
			transactions: []model.Transaction{{
				UserID:      "user-1",
				Date:        time.Date(2024, 2, 1, 15, 30, 0, 0, time.UTC),
				Description: "pharmacy",
				Amount:      decimal.RequireFromString("35.50"),
				Type:        model.TypeExpense,
			}},
			wantInserted: 1,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				txns, err := s.GetTransactions(ctx, "user-1")
				if err != nil {
					t.Fatalf("Failed to get transactions: %v", err)
				}
				if len(txns) != 1 {
					t.Fatalf("Expected 1 transaction, got %d", len(txns))
				}
				if txns[0].ID == "" || txns[0].Hash == "" {
					t.Errorf("ID and hash not generated: %+v", txns[0])
				}
				if txns[0].Category != "" {
					t.Errorf("Expected no category, got %q", txns[0].Category)
				}
			},
		},
		{
			name: "reject invalid transaction",
			transactions: []model.Transaction{{
				UserID:      "user-1",
				Date:        time.Now(),
				Description: "refund",
				Amount:      decimal.NewFromInt(-10),
				Type:        model.TypeExpense,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.setup != nil {
				tt.setup(store, ctx)
			}

			inserted, err := store.SaveTransactions(ctx, tt.transactions)
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if inserted != tt.wantInserted {
				t.Errorf("SaveTransactions() inserted = %d, want %d", inserted, tt.wantInserted)
			}

			if tt.validate != nil {
				tt.validate(t, store, ctx)
			}
		})
	}
}

func TestSQLiteStorage_GetTransactionsRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	original := model.Transaction{
		ID:          "txn-precise",
		UserID:      "user-1",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "salary payment",
		Amount:      decimal.RequireFromString("1234.56"),
		Type:        model.TypeIncome,
		Category:    model.CategoryIncome,
	}
	original.Hash = original.GenerateHash()

	_, err := store.SaveTransactions(ctx, []model.Transaction{original})
	require.NoError(t, err)

	got, err := store.GetTransactionByID(ctx, "user-1", "txn-precise")
	require.NoError(t, err)

	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Hash, got.Hash)
	assert.Equal(t, original.Description, got.Description)
	assert.True(t, original.Amount.Equal(got.Amount), "amount %s != %s", got.Amount, original.Amount)
	assert.Equal(t, original.Type, got.Type)
	assert.Equal(t, original.Category, got.Category)
	assert.True(t, original.Date.Equal(got.Date), "date %v != %v", got.Date, original.Date)
}

func TestSQLiteStorage_GetTransactionsNewestFirst(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, createTestTransactions("user-1", 5))
	require.NoError(t, err)
	_, err = store.SaveTransactions(ctx, createTestTransactions("user-2", 2))
	require.NoError(t, err)

	txns, err := store.GetTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txns, 5)
	for i := 1; i < len(txns); i++ {
		assert.False(t, txns[i].Date.After(txns[i-1].Date), "transactions not newest first")
	}
	for _, txn := range txns {
		assert.Equal(t, "user-1", txn.UserID)
	}

	none, err := store.GetTransactions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.GetTransactions(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_GetCategorizedTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions("user-1", 5)
	txns[0].CategorySource = model.SourceUser
	txns[1].Category = ""
	txns[2].CategorySource = model.SourcePredicted
	txns[3].CategorySource = model.SourceRule
	txns[4].Category = model.CategoryBills
	txns[4].CategorySource = model.SourceUser
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	got, err := store.GetCategorizedTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2, "only user-confirmed labels are history")
	assert.Equal(t, txns[0].ID, got[0].ID, "oldest first")
	assert.Equal(t, model.CategoryBills, got[1].Category)
	for _, txn := range got {
		assert.True(t, txn.Confirmed())
	}
}

func TestSQLiteStorage_CategorySourceRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions("user-1", 4)
	txns[1].CategorySource = model.SourceRule
	txns[2].CategorySource = model.SourceUser
	txns[3].Category = ""
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	want := map[string]model.CategorySource{
		txns[0].ID: model.SourcePredicted, // unattributed label
		txns[1].ID: model.SourceRule,
		txns[2].ID: model.SourceUser,
		txns[3].ID: "",
	}
	for id, source := range want {
		got, err := store.GetTransactionByID(ctx, "user-1", id)
		require.NoError(t, err)
		assert.Equal(t, source, got.CategorySource, id)
	}

	bad := createTestTransactions("user-2", 1)
	bad[0].CategorySource = "guess"
	_, err = store.SaveTransactions(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestSQLiteStorage_UpdateTransactionCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions("user-1", 1)
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	require.NoError(t, store.UpdateTransactionCategory(ctx, "user-1", txns[0].ID, model.CategoryHealthcare))
	got, err := store.GetTransactionByID(ctx, "user-1", txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryHealthcare, got.Category)
	assert.Equal(t, model.SourceUser, got.CategorySource)

	err = store.UpdateTransactionCategory(ctx, "user-1", txns[0].ID, "Groceries")
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	err = store.UpdateTransactionCategory(ctx, "user-2", txns[0].ID, model.CategoryFood)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_DeleteTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions("user-1", 2)
	_, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)

	tests := []struct {
		wantErr error
		name    string
		userID  string
		id      string
	}{
		{name: "other user's transaction", userID: "user-2", id: txns[0].ID, wantErr: common.ErrNotFound},
		{name: "delete existing", userID: "user-1", id: txns[0].ID},
		{name: "delete again", userID: "user-1", id: txns[0].ID, wantErr: common.ErrNotFound},
		{name: "empty id", userID: "user-1", id: "", wantErr: ErrEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.DeleteTransaction(ctx, tt.userID, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}

	remaining, err := store.GetTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, txns[1].ID, remaining[0].ID)
}

func TestSQLiteStorage_CorruptAmount(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.db.Exec(`
		INSERT INTO transactions (id, user_id, hash, date, description, amount, type)
		VALUES ('bad', 'user-1', 'h', ?, 'broken', 'twelve', 'expense')
	`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = store.GetTransactions(ctx, "user-1")
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
}
