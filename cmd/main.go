package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/storably/storage-service/internal/app"
	"github.com/storably/storage-service/internal/config"
	"github.com/storably/storage-service/internal/constants"
	"github.com/storably/storage-service/internal/controllers"
	"github.com/storably/storage-service/internal/middleware"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/routes"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

func main() {
	utils.InitLogger("storage-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize storage-service:", err)
	}
	defer application.Close()

	if err := application.EnsureSchema(context.Background()); err != nil {
		utils.Logger.Fatal("Failed to ensure database schema:", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(application.DB)
	unitRepo := repositories.NewUnitRepository(application.DB)
	featRepo := repositories.NewSecurityFeatureRepository(application.DB)
	rentalRepo := repositories.NewRentalRepository(application.DB)
	tokenRepo := repositories.NewTokenRepository(application.DB)

	if cfg.SeedDemoData {
		if err := app.SeedDemoData(context.Background(), userRepo, unitRepo, featRepo); err != nil {
			utils.Logger.Fatal("Failed to seed demo data:", err)
		}
	}

	// Services
	jwtService := services.NewJWTService(cfg.JWTSecret, tokenRepo)
	authService := services.NewAuthService(userRepo, jwtService)
	userService := services.NewUserService(userRepo, rentalRepo)
	unitService := services.NewUnitService(unitRepo, featRepo, userRepo, rentalRepo)
	rentalService := services.NewRentalService(rentalRepo, unitRepo, userRepo)
	tokenCleanupService := services.NewTokenCleanupService(tokenRepo)

	// Controllers
	healthController := controllers.NewHealthController(application)
	authController := controllers.NewAuthController(authService)
	userController := controllers.NewUserController(userService)
	unitController := controllers.NewUnitController(unitService)
	rentalController := controllers.NewRentalController(rentalService)

	// Router setup
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.AuthRegister, authController.Register).Methods(http.MethodPost)
	router.HandleFunc(routes.AuthLogin, authController.Login).Methods(http.MethodPost)

	// Secured routes. Registered before the optional-auth subrouter so
	// fixed paths like /api/rentals/my are not captured by /{id}.
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(jwtService, authService))
	secured.HandleFunc(routes.AuthLogout, authController.Logout).Methods(http.MethodPost)

	secured.HandleFunc(routes.Users, userController.ListUsers).Methods(http.MethodGet)
	secured.HandleFunc(routes.UsersMe, userController.GetCurrentUser).Methods(http.MethodGet)
	secured.HandleFunc(routes.UsersMe, userController.UpdateCurrentUser).Methods(http.MethodPatch)
	secured.HandleFunc(routes.UsersMe, userController.DeleteCurrentUser).Methods(http.MethodDelete)
	secured.HandleFunc(routes.UserByID, userController.GetUser).Methods(http.MethodGet)

	secured.HandleFunc(routes.Units, unitController.CreateUnit).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitsMy, unitController.GetMyUnits).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitByID, unitController.UpdateUnit).Methods(http.MethodPatch)
	secured.HandleFunc(routes.UnitByID, unitController.DeleteUnit).Methods(http.MethodDelete)
	secured.HandleFunc(routes.UnitFeatures, unitController.AddFeature).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitFeature, unitController.RemoveFeature).Methods(http.MethodDelete)
	secured.HandleFunc(routes.UnitRentals, rentalController.GetUnitRentalHistory).Methods(http.MethodGet)

	secured.HandleFunc(routes.Rentals, rentalController.CreateRental).Methods(http.MethodPost)
	secured.HandleFunc(routes.RentalsMy, rentalController.GetMyRentals).Methods(http.MethodGet)
	secured.HandleFunc(routes.RentalsExpiring, rentalController.GetUpcomingExpirations).Methods(http.MethodGet)
	secured.HandleFunc(routes.RentalsStatistics, rentalController.GetStatistics).Methods(http.MethodGet)
	secured.HandleFunc(routes.RentalTerminate, rentalController.TerminateRental).Methods(http.MethodPost)
	secured.HandleFunc(routes.RentalExtend, rentalController.ExtendRental).Methods(http.MethodPost)
	secured.HandleFunc(routes.RentalShare, rentalController.ShareRental).Methods(http.MethodPost)
	secured.HandleFunc(routes.RentalUnshare, rentalController.UnshareRental).Methods(http.MethodDelete)
	secured.HandleFunc(routes.RentalByID, rentalController.UpdateRental).Methods(http.MethodPatch)

	// Optionally authenticated reads: anonymous callers get the public
	// view, authenticated ones the view their role allows.
	public := router.NewRoute().Subrouter()
	public.Use(middleware.OptionalAuthMiddleware(jwtService, authService))
	public.HandleFunc(routes.Units, unitController.ListUnits).Methods(http.MethodGet)
	public.HandleFunc(routes.UnitsAvailable, unitController.ListAvailableUnits).Methods(http.MethodGet)
	public.HandleFunc(routes.UnitsSearch, unitController.SearchUnits).Methods(http.MethodGet)
	public.HandleFunc(routes.UnitByID, unitController.GetUnit).Methods(http.MethodGet)
	public.HandleFunc(routes.RentalByID, rentalController.GetRental).Methods(http.MethodGet)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	_, err = c.AddFunc(constants.TokenSweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.TokenSweepTimeout)
		defer cancel()
		utils.Logger.Info("Starting blacklist sweep cron job...")
		if err := tokenCleanupService.CleanupDaily(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to sweep expired blacklisted tokens")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule blacklist sweep cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled blacklist sweep cron job")

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("storage-service failed to start:", err)
	}
}
