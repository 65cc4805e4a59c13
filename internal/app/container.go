package app

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-reservation-backend/internal/api"
	"github.com/nekogravitycat/court-reservation-backend/internal/auth"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
	"github.com/nekogravitycat/court-reservation-backend/internal/resource"
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

// Stores bundles the repositories of one storage backend.
type Stores struct {
	Resources    resource.Repository
	Reservations reservation.Repository
}

// PostgresStores builds the repositories backed by a pgx pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Resources:    resource.NewPgxRepository(pool),
		Reservations: reservation.NewPgxRepository(pool),
	}
}

// SQLiteStores builds the repositories backed by a SQLite handle.
func SQLiteStores(sqlDB *sql.DB) Stores {
	return Stores{
		Resources:    resource.NewSQLiteRepository(sqlDB),
		Reservations: reservation.NewSQLiteRepository(sqlDB),
	}
}

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Stores       Stores
	JWTSecret    string

	Window       slot.Window
	Occupying    reservation.StatusSet
	Selector     reservation.Selector
	StoreTimeout time.Duration
	Location     *time.Location
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router             *gin.Engine
	JWTManager         *auth.JWTManager
	ReservationService reservation.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)

	// Resource Module
	resService := resource.NewService(cfg.Stores.Resources)

	// Reservation Module
	reservationService := reservation.NewService(cfg.Stores.Reservations, resService, reservation.Options{
		Window:       cfg.Window,
		Occupying:    cfg.Occupying,
		Selector:     cfg.Selector,
		StoreTimeout: cfg.StoreTimeout,
		Location:     cfg.Location,
	})

	router := api.NewRouter(api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		ReservationService: reservationService,
		JWTManager:         jwtManager,
	})

	return &Container{
		Router:             router,
		JWTManager:         jwtManager,
		ReservationService: reservationService,
	}
}
