package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// SetPipeline inserts or replaces the pipeline row keyed by name.
func (s *Store) SetPipeline(ctx context.Context, name, description string) error {
	if name == "" || description == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.SetPipeline", "name and description must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query, args, err := goqu.Dialect("sqlite3").
		Insert(tablePipeline).
		Rows(goqu.Record{"key": name, "description": description}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{"description": description})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set_pipeline query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.SetPipeline", err)
	}
	return nil
}

// GetPipeline returns the description registered for name.
func (s *Store) GetPipeline(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", mlerrors.New(mlerrors.InvalidParameter, "catalog.GetPipeline", "name must not be empty")
	}

	query, args, err := s.goqu.From(tablePipeline).
		Select("description").
		Where(goqu.I("key").Eq(name)).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build get_pipeline query: %w", err)
	}

	var description string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", mlerrors.New(mlerrors.InvalidParameter, "catalog.GetPipeline", "pipeline not found: "+name)
	}
	if err != nil {
		return "", mlerrors.Wrap(mlerrors.IoError, "catalog.GetPipeline", err)
	}
	return description, nil
}

// DeletePipeline idempotently removes the pipeline row keyed by name.
func (s *Store) DeletePipeline(ctx context.Context, name string) error {
	if name == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.DeletePipeline", "name must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query, args, err := s.goqu.Delete(tablePipeline).Where(goqu.I("key").Eq(name)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete_pipeline query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.DeletePipeline", err)
	}
	return nil
}
