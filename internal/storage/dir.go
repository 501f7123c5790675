package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Veraticus/spice-insight/internal/common"
)

// DirArtifactStore keeps each artifact in <dir>/<name>.json.
type DirArtifactStore struct {
	dir string
}

// NewDirArtifactStore creates dir if needed and returns a store rooted there.
func NewDirArtifactStore(dir string) (*DirArtifactStore, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &DirArtifactStore{dir: dir}, nil
}

// Dir returns the root directory.
func (d *DirArtifactStore) Dir() string {
	return d.dir
}

// SaveArtifact writes data through a temporary file so readers never see a
// partial artifact.
func (d *DirArtifactStore) SaveArtifact(ctx context.Context, name string, data []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateArtifactName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact %s: %w", name, err)
	}
	if err := os.Rename(tmpName, d.path(name)); err != nil {
		return fmt.Errorf("failed to install artifact %s: %w", name, err)
	}
	return nil
}

// LoadArtifact reads an artifact, or returns common.ErrNotFound.
func (d *DirArtifactStore) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateArtifactName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

func (d *DirArtifactStore) path(name string) string {
	return filepath.Join(d.dir, name+".json")
}
