package storage

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/mattn/go-sqlite3"
)

// classifyError marks lock contention as common.ErrDatabaseBusy so that
// writers wrapped in common.WithRetry try again. Other errors pass through.
func classifyError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", common.ErrDatabaseBusy, err)
	default:
		return err
	}
}
