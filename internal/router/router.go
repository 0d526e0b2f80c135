package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lodge_backend/internal/handlers"
	"lodge_backend/internal/metrics"
	"lodge_backend/internal/middleware"
	"lodge_backend/internal/repositories"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// Options carries the settings the HTTP surface is built from.
type Options struct {
	Driver             string
	CORSAllowedOrigins []string
	Auth               services.AuthConfig
	Location           *time.Location
	TurnaroundWarning  time.Duration
	Metrics            *metrics.Metrics
	// Clock defaults to the system clock.
	Clock services.Clock
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) error {
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}
	clock := opts.Clock
	if clock == nil {
		clock = services.SystemClock{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	engine.Use(utils.GinLogger())
	engine.Use(opts.Metrics.GinMiddleware())
	engine.Use(middleware.NoIndex())
	engine.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))

	// Initialize Repositories
	dialect := repositories.NewDialect(opts.Driver)
	unitRepo := repositories.NewUnitRepository(dialect)
	clientRepo := repositories.NewClientRepository()
	reservationRepo := repositories.NewReservationRepository()
	transactionRepo := repositories.NewTransactionRepository(dialect)
	reportRepo := repositories.NewReportRepository()

	// Initialize Services
	authService := services.NewAuthService(opts.Auth, clock)
	unitService := services.NewUnitService(unitRepo, db, clock, opts.Metrics)
	clientService := services.NewClientService(clientRepo, db, clock)
	transactionService := services.NewTransactionService(transactionRepo, db, clock)
	availabilityService := services.NewAvailabilityService(reservationRepo, unitService, db)
	reportService := services.NewReportService(reportRepo, unitService, db, clock, loc)
	reservationService := services.NewReservationService(services.ReservationServiceDeps{
		DB:              db,
		ReservationRepo: reservationRepo,
		UnitRepo:        unitRepo,
		ClientRepo:      clientRepo,
		TransactionRepo: transactionRepo,
		Units:           unitService,
		Validator:       services.NewBookingValidator(reservationRepo, opts.TurnaroundWarning, loc),
		Reconciler:      services.NewReconciler(db, reservationRepo, transactionRepo, clock, loc, opts.Metrics),
		Clock:           clock,
		Location:        loc,
		Metrics:         opts.Metrics,
	})

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	unitHandler := handlers.NewUnitHandler(unitService)
	clientHandler := handlers.NewClientHandler(clientService)
	reservationHandler := handlers.NewReservationHandler(reservationService, availabilityService, loc)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(db)

	engine.GET("/health", healthHandler.Health)
	engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(opts.Auth.JWTSecret))
	authenticated.Use(middleware.RoleAuthMiddleware(services.OperatorRole))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupUnitRoutes(authenticated, unitHandler)
		SetupClientRoutes(authenticated, clientHandler)
		SetupReservationRoutes(authenticated, reservationHandler)
		SetupTransactionRoutes(authenticated, transactionHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}

	engine.NoRoute(func(c *gin.Context) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Route not found.", c.Request.URL.Path))
	})
	return nil
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-Id"}
	config.ExposeHeaders = []string{"X-Request-Id"}
	return config
}
