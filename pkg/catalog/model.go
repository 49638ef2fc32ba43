package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// ModelRow is one version of a registered model.
type ModelRow struct {
	Key         string
	Version     uint32
	Active      bool
	Valid       bool
	Path        string
	Description string
	AppInfo     string
}

func validateModelPath(path string) error {
	if path == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.validateModelPath", "path must not be empty")
	}
	if !filepath.IsAbs(path) {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.validateModelPath", "path must be absolute")
	}
	info, err := os.Lstat(path)
	if err != nil {
		return mlerrors.Wrap(mlerrors.InvalidParameter, "catalog.validateModelPath", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.validateModelPath", "path must not be a symlink")
	}
	if !info.Mode().IsRegular() {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.validateModelPath", "path must be a regular file")
	}
	return nil
}

// RegisterModel atomically computes version = max(existing)+1 (1 if
// none), inserts the new row, and - if activate is set - deactivates
// every other version of name in the same transaction.
func (s *Store) RegisterModel(ctx context.Context, name, path string, activate bool, description, appInfo string) (uint32, error) {
	if name == "" {
		return 0, mlerrors.New(mlerrors.InvalidParameter, "catalog.RegisterModel", "name must not be empty")
	}
	if err := validateModelPath(path); err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, mlerrors.Wrap(mlerrors.IoError, "catalog.RegisterModel", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxVersion sql.NullInt64
	row := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM `+tableModel+` WHERE key = ?`, name)
	if err := row.Scan(&maxVersion); err != nil {
		return 0, mlerrors.Wrap(mlerrors.IoError, "catalog.RegisterModel", err)
	}
	version := uint32(1)
	if maxVersion.Valid {
		version = uint32(maxVersion.Int64) + 1
	}

	if activate {
		if _, err := tx.ExecContext(ctx, `UPDATE `+tableModel+` SET active = 0 WHERE key = ?`, name); err != nil {
			return 0, mlerrors.Wrap(mlerrors.IoError, "catalog.RegisterModel", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+tableModel+` (key, version, active, valid, path, description, app_info) VALUES (?, ?, ?, 1, ?, ?, ?)`,
		name, version, boolToInt(activate), path, description, appInfo,
	); err != nil {
		return 0, mlerrors.Wrap(mlerrors.IoError, "catalog.RegisterModel", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, mlerrors.Wrap(mlerrors.IoError, "catalog.RegisterModel", err)
	}
	return version, nil
}

// UpdateModelDescription updates the description of an existing model version.
func (s *Store) UpdateModelDescription(ctx context.Context, name string, version uint32, description string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+tableModel+` SET description = ? WHERE key = ? AND version = ?`,
		description, name, version,
	)
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.UpdateModelDescription", err)
	}
	return requireRowsAffected(res, "catalog.UpdateModelDescription", "model not found")
}

// ActivateModel transactionally deactivates every version of name, then
// activates (and marks valid) the given version.
func (s *Store) ActivateModel(ctx context.Context, name string, version uint32) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.ActivateModel", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE `+tableModel+` SET active = 0 WHERE key = ?`, name); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.ActivateModel", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE `+tableModel+` SET active = 1, valid = 1 WHERE key = ? AND version = ?`,
		name, version,
	)
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.ActivateModel", err)
	}
	if err := requireRowsAffected(res, "catalog.ActivateModel", "model version not found"); err != nil {
		return err
	}

	return tx.Commit()
}

// GetModel returns a single model version.
func (s *Store) GetModel(ctx context.Context, name string, version uint32) (*ModelRow, error) {
	query, args, err := s.goqu.From(tableModel).
		Select("key", "version", "active", "valid", "path", "description", "app_info").
		Where(goqu.I("key").Eq(name), goqu.I("version").Eq(version)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get_model query: %w", err)
	}
	return s.scanModelRow(ctx, query, args...)
}

// GetModelActivated returns the activated+valid row for name, if any.
func (s *Store) GetModelActivated(ctx context.Context, name string) (*ModelRow, error) {
	query, args, err := s.goqu.From(tableModel).
		Select("key", "version", "active", "valid", "path", "description", "app_info").
		Where(goqu.I("key").Eq(name), goqu.I("active").Eq(1), goqu.I("valid").Eq(1)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get_model_activated query: %w", err)
	}
	return s.scanModelRow(ctx, query, args...)
}

func (s *Store) scanModelRow(ctx context.Context, query string, args ...interface{}) (*ModelRow, error) {
	var (
		row             ModelRow
		active, valid   int
		description, ai sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.Key, &row.Version, &active, &valid, &row.Path, &description, &ai,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "catalog.GetModel", "model not found")
	}
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetModel", err)
	}
	row.Active = active != 0
	row.Valid = valid != 0
	row.Description = description.String
	row.AppInfo = ai.String
	return &row, nil
}

// GetModelAll returns every version of name, ordered by version ascending.
func (s *Store) GetModelAll(ctx context.Context, name string) ([]ModelRow, error) {
	query, args, err := s.goqu.From(tableModel).
		Select("key", "version", "active", "valid", "path", "description", "app_info").
		Where(goqu.I("key").Eq(name)).
		Order(goqu.I("version").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get_model_all query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetModelAll", err)
	}
	defer rows.Close()

	var out []ModelRow
	for rows.Next() {
		var (
			row             ModelRow
			active, valid   int
			description, ai sql.NullString
		)
		if err := rows.Scan(&row.Key, &row.Version, &active, &valid, &row.Path, &description, &ai); err != nil {
			return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetModelAll", err)
		}
		row.Active = active != 0
		row.Valid = valid != 0
		row.Description = description.String
		row.AppInfo = ai.String
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteModel deletes a model row. version == 0 deletes every version of
// name (0 is an explicit "any version" sentinel).
func (s *Store) DeleteModel(ctx context.Context, name string, version uint32) error {
	if name == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.DeleteModel", "name must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if version == 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+tableModel+` WHERE key = ?`, name); err != nil {
			return mlerrors.Wrap(mlerrors.IoError, "catalog.DeleteModel", err)
		}
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+tableModel+` WHERE key = ? AND version = ?`, name, version); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.DeleteModel", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRowsAffected(res sql.Result, op, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, op, err)
	}
	if n == 0 {
		return mlerrors.New(mlerrors.InvalidParameter, op, msg)
	}
	return nil
}
