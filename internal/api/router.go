package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-reservation-backend/internal/auth"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
	reservationHttp "github.com/nekogravitycat/court-reservation-backend/internal/reservation/http"
)

// Config holds the dependencies required to build the router.
type Config struct {
	IsProduction       bool
	ProdOrigins        []string
	ReservationService reservation.Service
	JWTManager         *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	if cfg.IsProduction {
		config.AllowOrigins = cfg.ProdOrigins
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000", // Frontend dev server
			"http://localhost:8081", // Swagger
		}
	}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// optionalAuth: Identifies the caller when a token is present, lets anonymous requests through.
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)

	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware, optionalAuth)
	}

	return r
}
