// Package dbtest provides a seeded SQLite store for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-reservation-backend/internal/db"
)

// Fixture is a fresh SQLite database in a per-test temp dir.
type Fixture struct {
	DB *sql.DB
}

// NewSQLite opens an empty store with the schema applied. It is closed on test cleanup.
func NewSQLite(t testing.TB) *Fixture {
	t.Helper()

	sqlDB, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reservations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &Fixture{DB: sqlDB}
}

func (f *Fixture) insert(t testing.TB, table string, columns []string, values ...any) string {
	t.Helper()

	id := uuid.NewString()
	query, args, err := squirrel.Insert(table).
		Columns(append([]string{"id"}, columns...)...).
		Values(append([]any{id}, values...)...).
		ToSql()
	require.NoError(t, err)

	_, err = f.DB.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
	return id
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (f *Fixture) Venue(t testing.TB, name string) string {
	t.Helper()
	return f.insert(t, "venues", []string{"name", "created_at"}, name, now())
}

func (f *Fixture) Activity(t testing.TB, name string) string {
	t.Helper()
	return f.insert(t, "activities", []string{"name", "created_at"}, name, now())
}

func (f *Fixture) Resource(t testing.TB, venueID, activityID, name string) string {
	t.Helper()
	return f.insert(t, "resources", []string{"venue_id", "activity_id", "name", "created_at"},
		venueID, activityID, name, now())
}

func (f *Fixture) User(t testing.TB, email, displayName string) string {
	t.Helper()
	return f.insert(t, "users", []string{"email", "display_name", "created_at"}, email, displayName, now())
}

// Pool seeds one venue, one activity and n resources named "Court 01".."Court n".
func (f *Fixture) Pool(t testing.TB, n int) (venueID, activityID string, resourceIDs []string) {
	t.Helper()

	venueID = f.Venue(t, "Central Sports Hall")
	activityID = f.Activity(t, "Badminton")
	for i := 1; i <= n; i++ {
		resourceIDs = append(resourceIDs, f.Resource(t, venueID, activityID, fmt.Sprintf("Court %02d", i)))
	}
	return venueID, activityID, resourceIDs
}
