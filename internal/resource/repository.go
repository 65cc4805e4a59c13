package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Resource, error)
	// ListByPool returns every resource of a venue that serves the activity, ordered by name.
	ListByPool(ctx context.Context, venueID, activityID string) ([]*Resource, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	const query = `
		SELECT r.id, r.venue_id, r.activity_id, r.name, v.name, a.name, r.created_at
		FROM public.resources r
		JOIN public.venues v ON r.venue_id = v.id
		JOIN public.activities a ON r.activity_id = a.id
		WHERE r.id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var res Resource
	if err := row.Scan(
		&res.ID, &res.VenueID, &res.ActivityID, &res.Name, &res.VenueName, &res.ActivityName, &res.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) ListByPool(ctx context.Context, venueID, activityID string) ([]*Resource, error) {
	const query = `
		SELECT r.id, r.venue_id, r.activity_id, r.name, v.name, a.name, r.created_at
		FROM public.resources r
		JOIN public.venues v ON r.venue_id = v.id
		JOIN public.activities a ON r.activity_id = a.id
		WHERE r.venue_id = $1 AND r.activity_id = $2
		ORDER BY r.name, r.id
	`
	rows, err := r.pool.Query(ctx, query, venueID, activityID)
	if err != nil {
		return nil, fmt.Errorf("list resource pool failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(
			&res.ID, &res.VenueID, &res.ActivityID, &res.Name, &res.VenueName, &res.ActivityName, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resource pool failed: %w", err)
	}

	return result, nil
}
