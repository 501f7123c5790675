package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insight/internal/common"
)

// ArtifactInfo describes a stored model artifact.
type ArtifactInfo struct {
	UpdatedAt time.Time
	Name      string
	Checksum  string
	Size      int64
}

// SaveArtifact stores data under name, replacing any previous version.
func (s *SQLiteStorage) SaveArtifact(ctx context.Context, name string, data []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateArtifactName(name); err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: artifact data", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_artifacts (name, data, checksum, size, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			checksum = excluded.checksum,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, name, data, checksum(data), len(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", name, classifyError(err))
	}
	return nil
}

// LoadArtifact returns the data stored under name, or common.ErrNotFound.
// A checksum mismatch is reported as common.ErrDatabaseCorrupted.
func (s *SQLiteStorage) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateArtifactName(name); err != nil {
		return nil, err
	}

	var data []byte
	var sum string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, checksum FROM model_artifacts WHERE name = ?`, name,
	).Scan(&data, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", name, err)
	}

	if checksum(data) != sum {
		return nil, fmt.Errorf("artifact %s: %w", name, common.ErrDatabaseCorrupted)
	}
	return data, nil
}

// ListArtifacts describes every stored artifact, ordered by name.
func (s *SQLiteStorage) ListArtifacts(ctx context.Context) ([]ArtifactInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, checksum, size, updated_at FROM model_artifacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []ArtifactInfo
	for rows.Next() {
		var info ArtifactInfo
		if err := rows.Scan(&info.Name, &info.Checksum, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteArtifacts removes every stored artifact. The next load falls back
// to training.
func (s *SQLiteStorage) DeleteArtifacts(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM model_artifacts`); err != nil {
		return fmt.Errorf("failed to delete artifacts: %w", classifyError(err))
	}
	return nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
