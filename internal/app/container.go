package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/court-season-backend/internal/api"
	"github.com/nekogravitycat/court-season-backend/internal/auth"
	"github.com/nekogravitycat/court-season-backend/internal/availability"
	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/db"
	"github.com/nekogravitycat/court-season-backend/internal/notify"
	"github.com/nekogravitycat/court-season-backend/internal/season"
	"github.com/nekogravitycat/court-season-backend/internal/waitlist"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction          bool
	ProdOrigins           string
	DBPool                *pgxpool.Pool
	JWTSecret             string
	JWTTTL                time.Duration
	TxMaxAttempts         int
	WaitlistDefaultRegion string
	// Notifier receives lifecycle events; nil disables notifications.
	Notifier      notify.Notifier
	NotifyTimeout time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router        *gin.Engine
	JWTManager    *auth.JWTManager
	SeasonService season.Service
	Dispatcher    *notify.Dispatcher
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	transactor := db.NewTransactor(cfg.DBPool, cfg.TxMaxAttempts)

	var dispatcher *notify.Dispatcher
	if cfg.Notifier != nil {
		dispatcher = notify.NewDispatcher(cfg.Notifier, cfg.NotifyTimeout)
	}

	// Court Module
	courtRepo := court.NewPgxRepository(cfg.DBPool)
	courtService := court.NewService(courtRepo)

	// Waitlist Module
	waitlistRepo := waitlist.NewPgxRepository(cfg.DBPool)
	waitlistService := waitlist.NewService(waitlistRepo, waitlist.NewTxRunner(transactor), courtService, dispatcher, cfg.WaitlistDefaultRegion)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, booking.NewTxRunner(transactor), courtService, waitlistService)

	// Season Module
	seasonRepo := season.NewPgxRepository(cfg.DBPool)
	seasonService := season.NewService(seasonRepo, season.NewTxRunner(transactor), courtService, dispatcher)

	// Availability Module
	availabilityService := availability.NewService(courtService, bookingRepo)

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		SeasonService:       seasonService,
		WaitlistService:     waitlistService,
		JWTManager:          jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:        router,
		JWTManager:    jwtManager,
		SeasonService: seasonService,
		Dispatcher:    dispatcher,
	}
}
