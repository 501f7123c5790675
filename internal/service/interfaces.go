// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/spice-insight/internal/model"
)

// TransactionSource supplies a user's transaction history, newest first.
type TransactionSource interface {
	GetTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

// ArtifactStore persists opaque model artifacts under well-known names.
// LoadArtifact returns common.ErrNotFound for unknown names.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, name string, data []byte) error
	LoadArtifact(ctx context.Context, name string) ([]byte, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionSource
	ArtifactStore

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, id string, category model.Category) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetCategorizedTransactions(ctx context.Context, userID string) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
