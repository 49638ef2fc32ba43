package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// ResourceRow is one resource registered under a (possibly shared) key.
type ResourceRow struct {
	Key         string
	Path        string
	Description string
	AppInfo     string
}

// AddResource inserts a resource row. Unlike pipelines and models,
// resources are not uniquely keyed: multiple rows may share a key.
func (s *Store) AddResource(ctx context.Context, name, path, description, appInfo string) error {
	if name == "" || path == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.AddResource", "name and path must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query, args, err := s.goqu.Insert(tableResource).
		Rows(goqu.Record{"key": name, "path": path, "description": description, "app_info": appInfo}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add_resource query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.AddResource", err)
	}
	return nil
}

// GetResource returns every resource row registered under name.
func (s *Store) GetResource(ctx context.Context, name string) ([]ResourceRow, error) {
	if name == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "catalog.GetResource", "name must not be empty")
	}

	query, args, err := s.goqu.From(tableResource).
		Select("key", "path", "description", "app_info").
		Where(goqu.I("key").Eq(name)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get_resource query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetResource", err)
	}
	defer rows.Close()

	var out []ResourceRow
	for rows.Next() {
		var (
			row             ResourceRow
			description, ai sql.NullString
		)
		if err := rows.Scan(&row.Key, &row.Path, &description, &ai); err != nil {
			return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetResource", err)
		}
		row.Description = description.String
		row.AppInfo = ai.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "catalog.GetResource", err)
	}
	if len(out) == 0 {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "catalog.GetResource", "resource not found: "+name)
	}
	return out, nil
}

// DeleteResource removes every resource row registered under name.
func (s *Store) DeleteResource(ctx context.Context, name string) error {
	if name == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "catalog.DeleteResource", "name must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query, args, err := s.goqu.Delete(tableResource).Where(goqu.I("key").Eq(name)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete_resource query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "catalog.DeleteResource", err)
	}
	return nil
}
