// Package testutil provides test doubles and fixtures shared across the
// insight engine's packages.
package testutil

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
)

// ArtifactStore is an in-memory service.ArtifactStore with error injection.
type ArtifactStore struct {
	artifacts map[string][]byte
	SaveErr   error
	LoadErr   error
	mu        sync.Mutex
	saves     int
	loads     int
}

// NewArtifactStore creates an empty in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{artifacts: make(map[string][]byte)}
}

// SaveArtifact stores a copy of data under name.
func (s *ArtifactStore) SaveArtifact(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.artifacts[name] = append([]byte(nil), data...)
	return nil
}

// LoadArtifact returns a copy of the artifact or common.ErrNotFound.
func (s *ArtifactStore) LoadArtifact(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loads++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	data, ok := s.artifacts[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put overwrites an artifact without counting it as a save.
func (s *ArtifactStore) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[name] = data
}

// Get returns the raw artifact, if present.
func (s *ArtifactStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.artifacts[name]
	return data, ok
}

// Saves returns the number of SaveArtifact calls.
func (s *ArtifactStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Loads returns the number of LoadArtifact calls.
func (s *ArtifactStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// TransactionSource is an in-memory service.TransactionSource.
type TransactionSource struct {
	byUser map[string][]model.Transaction
	Err    error
	mu     sync.Mutex
	calls  int
}

// NewTransactionSource creates a source with no transactions.
func NewTransactionSource() *TransactionSource {
	return &TransactionSource{byUser: make(map[string][]model.Transaction)}
}

// Set replaces the transactions of a user.
func (s *TransactionSource) Set(userID string, txns []model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = txns
}

// GetTransactions returns a copy of the user's transactions.
func (s *TransactionSource) GetTransactions(_ context.Context, userID string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]model.Transaction(nil), s.byUser[userID]...), nil
}

// Calls returns the number of GetTransactions calls.
func (s *TransactionSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
