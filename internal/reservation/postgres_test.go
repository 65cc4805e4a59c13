package reservation

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-reservation-backend/internal/db"
	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-reservation-backend/internal/resource"
)

// openTestPool connects to TEST_DB_DSN (optionally from the repository .env) and
// applies the schema. Tests are skipped when no database is configured.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.ApplyPostgresSchema(ctx, pool))
	return pool
}

// seedPostgresPool inserts a venue, an activity and n resources with unique names.
func seedPostgresPool(t *testing.T, pool *pgxpool.Pool, n int) (venueID, activityID string, resourceIDs []string) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	require.NoError(t, pool.QueryRow(ctx,
		"INSERT INTO public.venues (name) VALUES ($1) RETURNING id", "Venue "+suffix).Scan(&venueID))
	require.NoError(t, pool.QueryRow(ctx,
		"INSERT INTO public.activities (name) VALUES ($1) RETURNING id", "Activity "+suffix).Scan(&activityID))
	for i := 1; i <= n; i++ {
		var id string
		require.NoError(t, pool.QueryRow(ctx,
			"INSERT INTO public.resources (venue_id, activity_id, name) VALUES ($1, $2, $3) RETURNING id",
			venueID, activityID, fmt.Sprintf("Court %02d", i)).Scan(&id))
		resourceIDs = append(resourceIDs, id)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM public.venues WHERE id = $1", venueID)
		_, _ = pool.Exec(context.Background(), "DELETE FROM public.activities WHERE id = $1", activityID)
	})
	return venueID, activityID, resourceIDs
}

func newPostgresService(t *testing.T, pool *pgxpool.Pool) Service {
	t.Helper()
	return NewService(
		NewPgxRepository(pool),
		resource.NewService(resource.NewPgxRepository(pool)),
		Options{Window: testWindow(t), StoreTimeout: 5 * time.Second},
	)
}

func TestPostgres_ConcurrentLastResource(t *testing.T) {
	pool := openTestPool(t)
	venueID, activityID, courts := seedPostgresPool(t, pool, 1)
	svc := newPostgresService(t, pool)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := request(venueID, activityID, "", day, 9+i%2, 11)
			if i%2 == 0 {
				in.ResourceID = courts[0]
			}
			_, err := svc.Create(context.Background(), in)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if apperror.CodeOf(err) != http.StatusConflict {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestPostgres_ScenarioFlow(t *testing.T) {
	pool := openTestPool(t)
	venueID, activityID, courts := seedPostgresPool(t, pool, 2)
	svc := newPostgresService(t, pool)
	ctx := context.Background()

	b, err := svc.Create(ctx, request(venueID, activityID, courts[0], day, 8, 10))
	require.NoError(t, err)
	assert.Equal(t, "Court 01", b.ResourceName)
	assert.Equal(t, day, b.Date.Format(DateLayout))

	_, err = svc.Create(ctx, request(venueID, activityID, courts[0], day, 9, 11))
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	_, err = svc.Create(ctx, request(venueID, activityID, courts[0], day, 10, 12))
	require.NoError(t, err)

	auto, err := svc.Create(ctx, request(venueID, activityID, "", day, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, courts[1], auto.ResourceID)

	_, err = svc.Create(ctx, request(venueID, activityID, "", day, 9, 10))
	assert.ErrorIs(t, err, ErrNoFreeResource)

	slots, err := svc.AvailableSlots(ctx, AvailabilityInput{VenueID: venueID, ActivityID: activityID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, 0, slotAt(t, slots, 9).Free)
	assert.Equal(t, 1, slotAt(t, slots, 10).Free)
	assert.Equal(t, 2, slotAt(t, slots, 12).Free)
}

func TestPostgres_ExclusionConstraintBackstop(t *testing.T) {
	pool := openTestPool(t)
	venueID, activityID, courts := seedPostgresPool(t, pool, 1)
	ctx := context.Background()

	insert := func(start, end int) error {
		_, err := pool.Exec(ctx, `INSERT INTO public.reservations
			(resource_id, venue_id, activity_id, reservation_date, start_hour, end_hour, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'Booking')`,
			courts[0], venueID, activityID, day, start, end)
		return err
	}

	require.NoError(t, insert(9, 11))
	err := insert(10, 12)
	require.Error(t, err)
	assert.True(t, db.IsExclusionViolation(err))
	assert.NoError(t, insert(11, 12))
}
