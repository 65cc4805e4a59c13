package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/nekogravitycat/court-reservation-backend/internal/db"
)

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository stores reservations in SQLite. The handle must be opened with
// db.OpenSQLite so transactions take the write lock up front; that makes the
// overlap check and the insert in InsertIfFree a single serialized step.
func NewSQLiteRepository(sqlDB *sql.DB) Repository {
	return &sqliteRepository{db: sqlDB, now: time.Now}
}

func sqliteDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func sqliteTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (r *sqliteRepository) selectReservations() squirrel.SelectBuilder {
	return squirrel.Select(reservationColumns...).
		From("reservations b").
		Join("resources r ON b.resource_id = r.id").
		Join("venues v ON b.venue_id = v.id").
		Join("activities a ON b.activity_id = a.id").
		LeftJoin("users u ON b.user_id = u.id")
}

func scanSQLiteReservation(scan func(dest ...any) error, extra ...any) (*Reservation, error) {
	var (
		b                          Reservation
		userID, userName           sql.NullString
		date, createdAt, updatedAt string
		status                     string
	)
	dest := []any{
		&b.ID, &b.ResourceID, &b.ResourceName, &b.VenueID, &b.VenueName, &b.ActivityID, &b.ActivityName,
		&userID, &userName, &date, &b.StartHour, &b.EndHour,
		&status, &b.Remarks, &createdAt, &updatedAt,
	}
	if err := scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if b.Date, err = ParseDate(date); err != nil {
		return nil, fmt.Errorf("parse reservation_date %q: %w", date, err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	if userID.Valid {
		b.UserID = &userID.String
	}
	if userName.Valid {
		b.UserName = &userName.String
	}
	b.Status = Status(status)
	return &b, nil
}

func (r *sqliteRepository) FindOverlapping(ctx context.Context, q OverlapQuery) ([]*Reservation, error) {
	if len(q.ResourceIDs) == 0 {
		return nil, nil
	}
	query, args, err := r.selectReservations().
		Where(overlapWhere(q, sqliteDate(q.Date))).
		OrderBy("b.start_hour", "b.resource_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find overlapping query failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("find overlapping reservations failed: %w", err))
	}
	defer rows.Close()

	var result []*Reservation
	for rows.Next() {
		b, err := scanSQLiteReservation(rows.Scan)
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

func (r *sqliteRepository) InsertIfFree(ctx context.Context, b *Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return db.Classify(fmt.Errorf("begin reservation tx failed: %w", err))
	}
	defer tx.Rollback()

	sub, args, err := squirrel.Select("1").
		From("reservations b").
		Where(overlapWhere(OverlapQuery{
			ResourceIDs: []string{b.ResourceID},
			StartHour:   b.StartHour,
			EndHour:     b.EndHour,
		}, sqliteDate(b.Date))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build overlap check query failed: %w", err)
	}

	var taken bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&taken); err != nil {
		return db.Classify(fmt.Errorf("check overlap failed: %w", err))
	}
	if taken {
		return ErrResourceUnavailable
	}

	now := r.now().UTC()
	id := uuid.NewString()
	query, args, err := squirrel.Insert("reservations").
		Columns("id", "resource_id", "venue_id", "activity_id", "user_id", "reservation_date",
			"start_hour", "end_hour", "status", "remarks", "created_at", "updated_at").
		Values(id, b.ResourceID, b.VenueID, b.ActivityID, b.UserID, sqliteDate(b.Date),
			b.StartHour, b.EndHour, string(b.Status), b.Remarks, sqliteTimestamp(now), sqliteTimestamp(now)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return db.Classify(fmt.Errorf("create reservation failed: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return db.Classify(fmt.Errorf("commit reservation failed: %w", err))
	}

	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := r.selectReservations().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	b, err := scanSQLiteReservation(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.Classify(fmt.Errorf("get reservation failed: %w", err))
	}
	return b, nil
}

func (r *sqliteRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	var date any
	if filter.Date != nil {
		date = sqliteDate(*filter.Date)
	}
	limit, offset := pageBounds(filter)

	query, args, err := squirrel.Select(append(reservationColumns, "count(*) OVER() AS total_count")...).
		From("reservations b").
		Join("resources r ON b.resource_id = r.id").
		Join("venues v ON b.venue_id = v.id").
		Join("activities a ON b.activity_id = a.id").
		LeftJoin("users u ON b.user_id = u.id").
		Where(filterWhere(filter, date)).
		OrderBy("b.reservation_date DESC", "b.start_hour", "r.name").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list reservations failed: %w", err))
	}
	defer rows.Close()

	var result []*Reservation
	var total int
	for rows.Next() {
		b, err := scanSQLiteReservation(rows.Scan, &total)
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

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	query, args, err := squirrel.Delete("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reservation query failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return db.Classify(fmt.Errorf("delete reservation failed: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reservation failed: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) CompleteElapsed(ctx context.Context, today time.Time, hour int) (int64, error) {
	day := sqliteDate(today)
	query, args, err := squirrel.Update("reservations").
		Set("status", string(StatusCompleted)).
		Set("updated_at", sqliteTimestamp(r.now())).
		Where(squirrel.NotEq{"status": string(StatusCompleted)}).
		Where(squirrel.Or{
			squirrel.Lt{"reservation_date": day},
			squirrel.And{
				squirrel.Eq{"reservation_date": day},
				squirrel.LtOrEq{"end_hour": hour},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build complete reservations query failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, db.Classify(fmt.Errorf("complete reservations failed: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete reservations failed: %w", err)
	}
	return n, nil
}
