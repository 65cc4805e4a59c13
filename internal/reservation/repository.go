package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-reservation-backend/internal/db"
)

// OverlapQuery selects reservations on any of ResourceIDs, on Date, whose interval
// intersects [StartHour, EndHour). Reservations with an excluded status are skipped.
type OverlapQuery struct {
	ResourceIDs      []string
	Date             time.Time
	StartHour        int
	EndHour          int
	ExcludedStatuses []Status
}

// Repository is the Reservation Store. Implementations guarantee that InsertIfFree
// never commits two overlapping reservations on the same resource and date,
// regardless of how many callers race on it.
type Repository interface {
	FindOverlapping(ctx context.Context, q OverlapQuery) ([]*Reservation, error)

	// InsertIfFree checks for an overlapping reservation on r.ResourceID and inserts r
	// as one atomic step. It returns ErrResourceUnavailable when the window is taken
	// and fills r.ID, r.CreatedAt and r.UpdatedAt on success.
	InsertIfFree(ctx context.Context, r *Reservation) error

	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Delete(ctx context.Context, id string) error

	// CompleteElapsed marks every reservation that ended before (today, hour) as Completed.
	CompleteElapsed(ctx context.Context, today time.Time, hour int) (int64, error)
}

var reservationColumns = []string{
	"b.id", "b.resource_id", "r.name", "b.venue_id", "v.name", "b.activity_id", "a.name",
	"b.user_id", "u.display_name", "b.reservation_date", "b.start_hour", "b.end_hour",
	"b.status", "b.remarks", "b.created_at", "b.updated_at",
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// overlapWhere is the half-open intersection test start < qEnd AND end > qStart.
func overlapWhere(q OverlapQuery, date any) squirrel.And {
	where := squirrel.And{
		squirrel.Eq{"b.resource_id": q.ResourceIDs},
		squirrel.Eq{"b.reservation_date": date},
		squirrel.Lt{"b.start_hour": q.EndHour},
		squirrel.Gt{"b.end_hour": q.StartHour},
	}
	if len(q.ExcludedStatuses) > 0 {
		where = append(where, squirrel.NotEq{"b.status": statusStrings(q.ExcludedStatuses)})
	}
	return where
}

func filterWhere(filter Filter, date any) squirrel.And {
	where := squirrel.And{}
	if filter.VenueID != "" {
		where = append(where, squirrel.Eq{"b.venue_id": filter.VenueID})
	}
	if filter.ActivityID != "" {
		where = append(where, squirrel.Eq{"b.activity_id": filter.ActivityID})
	}
	if filter.ResourceID != "" {
		where = append(where, squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.UserID != "" {
		where = append(where, squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.Date != nil {
		where = append(where, squirrel.Eq{"b.reservation_date": date})
	}
	return where
}

func pageBounds(filter Filter) (limit, offset uint64) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	return uint64(filter.PageSize), uint64((filter.Page - 1) * filter.PageSize)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *pgxRepository) selectReservations() squirrel.SelectBuilder {
	return r.psql().Select(reservationColumns...).
		From("public.reservations b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.venues v ON b.venue_id = v.id").
		Join("public.activities a ON b.activity_id = a.id").
		LeftJoin("public.users u ON b.user_id = u.id")
}

func scanPgxReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var b Reservation
	dest := []any{
		&b.ID, &b.ResourceID, &b.ResourceName, &b.VenueID, &b.VenueName, &b.ActivityID, &b.ActivityName,
		&b.UserID, &b.UserName, &b.Date, &b.StartHour, &b.EndHour,
		&b.Status, &b.Remarks, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Date = b.Date.UTC()
	return &b, nil
}

func (r *pgxRepository) FindOverlapping(ctx context.Context, q OverlapQuery) ([]*Reservation, error) {
	if len(q.ResourceIDs) == 0 {
		return nil, nil
	}
	query, args, err := r.selectReservations().
		Where(overlapWhere(q, q.Date)).
		OrderBy("b.start_hour", "b.resource_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find overlapping query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("find overlapping reservations failed: %w", err))
	}
	defer rows.Close()

	var result []*Reservation
	for rows.Next() {
		b, err := scanPgxReservation(rows)
		if err != nil {
			return nil, db.Classify(fmt.Errorf("scan reservation failed: %w", err))
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("find overlapping reservations failed: %w", err))
	}
	return result, nil
}

func (r *pgxRepository) InsertIfFree(ctx context.Context, b *Reservation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return db.Classify(fmt.Errorf("begin reservation tx failed: %w", err))
	}
	defer tx.Rollback(ctx)

	// Writers targeting the same resource queue here for the rest of the transaction.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", b.ResourceID); err != nil {
		return db.Classify(fmt.Errorf("lock resource failed: %w", err))
	}

	sub, args, err := r.psql().Select("1").
		From("public.reservations b").
		Where(overlapWhere(OverlapQuery{
			ResourceIDs: []string{b.ResourceID},
			Date:        b.Date,
			StartHour:   b.StartHour,
			EndHour:     b.EndHour,
		}, b.Date)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build overlap check query failed: %w", err)
	}

	var taken bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&taken); err != nil {
		return db.Classify(fmt.Errorf("check overlap failed: %w", err))
	}
	if taken {
		return ErrResourceUnavailable
	}

	query, args, err := r.psql().Insert("public.reservations").
		Columns("resource_id", "venue_id", "activity_id", "user_id", "reservation_date",
			"start_hour", "end_hour", "status", "remarks").
		Values(b.ResourceID, b.VenueID, b.ActivityID, b.UserID, b.Date,
			b.StartHour, b.EndHour, b.Status, b.Remarks).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if db.IsExclusionViolation(err) {
			return ErrResourceUnavailable
		}
		return db.Classify(fmt.Errorf("create reservation failed: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		if db.IsExclusionViolation(err) {
			return ErrResourceUnavailable
		}
		return db.Classify(fmt.Errorf("commit reservation failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := r.selectReservations().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	b, err := scanPgxReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("get reservation failed: %w", err))
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	var date any
	if filter.Date != nil {
		date = *filter.Date
	}
	limit, offset := pageBounds(filter)

	query, args, err := r.psql().Select(append(reservationColumns, "count(*) OVER() as total_count")...).
		From("public.reservations b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.venues v ON b.venue_id = v.id").
		Join("public.activities a ON b.activity_id = a.id").
		LeftJoin("public.users u ON b.user_id = u.id").
		Where(filterWhere(filter, date)).
		OrderBy("b.reservation_date DESC", "b.start_hour", "r.name").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list reservations failed: %w", err))
	}
	defer rows.Close()

	var result []*Reservation
	var total int
	for rows.Next() {
		b, err := scanPgxReservation(rows, &total)
		if err != nil {
			return nil, 0, db.Classify(fmt.Errorf("scan reservation failed: %w", err))
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list reservations failed: %w", err))
	}
	return result, total, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.psql().Delete("public.reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return db.Classify(fmt.Errorf("delete reservation failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CompleteElapsed(ctx context.Context, today time.Time, hour int) (int64, error) {
	query, args, err := r.psql().Update("public.reservations").
		Set("status", StatusCompleted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.NotEq{"status": StatusCompleted}).
		Where(squirrel.Or{
			squirrel.Lt{"reservation_date": today},
			squirrel.And{
				squirrel.Eq{"reservation_date": today},
				squirrel.LtOrEq{"end_hour": hour},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build complete reservations query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, db.Classify(fmt.Errorf("complete reservations failed: %w", err))
	}
	return ct.RowsAffected(), nil
}
