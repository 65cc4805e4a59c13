package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository reads resources from the SQLite schema in internal/db.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) selectResources() squirrel.SelectBuilder {
	return squirrel.Select(
		"r.id", "r.venue_id", "r.activity_id", "r.name", "v.name", "a.name", "r.created_at",
	).
		From("resources r").
		Join("venues v ON r.venue_id = v.id").
		Join("activities a ON r.activity_id = a.id")
}

func scanResource(scan func(dest ...any) error) (*Resource, error) {
	var res Resource
	var createdAt string
	if err := scan(
		&res.ID, &res.VenueID, &res.ActivityID, &res.Name, &res.VenueName, &res.ActivityName, &createdAt,
	); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse resource created_at %q: %w", createdAt, err)
	}
	res.CreatedAt = t
	return &res, nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	query, args, err := r.selectResources().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resource query failed: %w", err)
	}

	res, err := scanResource(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return res, nil
}

func (r *sqliteRepository) ListByPool(ctx context.Context, venueID, activityID string) ([]*Resource, error) {
	query, args, err := r.selectResources().
		Where(squirrel.Eq{"r.venue_id": venueID, "r.activity_id": activityID}).
		OrderBy("r.name", "r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list resource pool query failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resource pool failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		res, err := scanResource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resource pool failed: %w", err)
	}
	return result, nil
}
