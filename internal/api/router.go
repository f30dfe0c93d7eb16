package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-season-backend/internal/auth"
	"github.com/nekogravitycat/court-season-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/court-season-backend/internal/availability/http"
	"github.com/nekogravitycat/court-season-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/court-season-backend/internal/booking/http"
	"github.com/nekogravitycat/court-season-backend/internal/season"
	seasonHttp "github.com/nekogravitycat/court-season-backend/internal/season/http"
	"github.com/nekogravitycat/court-season-backend/internal/waitlist"
	waitlistHttp "github.com/nekogravitycat/court-season-backend/internal/waitlist/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	AvailabilityService availability.Service
	BookingService      booking.Service
	SeasonService       season.Service
	WaitlistService     waitlist.Service
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: Logs request information through zerolog.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:8081", // Swagger
			"http://localhost:3000",
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// providerMiddleware: Further checks that the caller manages courts.
	providerMiddleware := auth.RequireRole(auth.RoleProvider)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	seasonHandler := seasonHttp.NewHandler(cfg.SeasonService)
	waitlistHandler := waitlistHttp.NewHandler(cfg.WaitlistService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		v1.GET("/me", authMiddleware, Me)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, providerMiddleware)
		seasonHttp.RegisterRoutes(v1, seasonHandler, authMiddleware, providerMiddleware)
		waitlistHttp.RegisterRoutes(v1, waitlistHandler, authMiddleware, providerMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
