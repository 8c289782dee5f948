package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"safeway/internal/cache"
	"safeway/internal/config"
	"safeway/internal/db"
	"safeway/internal/geocode"
	"safeway/internal/handlers"
	mw "safeway/internal/middleware"
	"safeway/internal/routing"
	"safeway/internal/sms"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err := dbConn.Ping(); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}
	if err := db.SeedCrimeData(dbConn); err != nil {
		logger.Fatal("failed crime data seed", zap.Error(err))
	}

	var store *cache.Store
	if cfg.RedisURL != "" {
		store, err = cache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable; continuing without caching", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	router := routing.NewClient(cfg.ORSBaseURL, cfg.ORSAPIKey, logger)
	geocoder := geocode.NewClient(cfg.NominatimBaseURL, logger)
	sender := sms.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)

	authHandler := handlers.NewAuthHandler(dbConn, []byte(cfg.JWTSecret), cfg.JWTExpires, logger)
	routesHandler := handlers.NewRoutesHandler(dbConn, router, geocoder, store, logger)
	safetyHandler := handlers.NewSafetyHandler(dbConn, logger)
	sosHandler := handlers.NewSOSHandler(dbConn, sender, logger)
	authMW := mw.NewAuthMiddleware(dbConn, []byte(cfg.JWTSecret))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(100, 15*time.Minute))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		api.Get("/routes/search", routesHandler.Search)
		api.Get("/routes/geocode", routesHandler.GeocodePlace)

		api.Get("/safety/score", store.CachedJSON(6*time.Hour, safetyHandler.Score))
		api.Get("/safety/route-score", safetyHandler.RouteScore)
		api.Get("/safety/crime-data", store.CachedJSON(24*time.Hour, safetyHandler.CrimeData))
		api.Get("/safety/crime-data/{city}", store.CachedJSON(24*time.Hour, safetyHandler.CrimeDataByCity))
		api.Get("/safety/reports", store.CachedJSON(30*time.Minute, safetyHandler.NearbyReports))

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/auth/me", authHandler.Me)

			pr.Post("/routes/save", routesHandler.Save)
			pr.Get("/routes/favorites", routesHandler.Favorites)
			pr.Delete("/routes/{id}", routesHandler.Delete)
			pr.Patch("/routes/{id}/favorite", routesHandler.ToggleFavorite)

			pr.Post("/safety/report", safetyHandler.SubmitReport)

			pr.Get("/sos/contacts", sosHandler.Contacts)
			pr.Post("/sos/contacts", sosHandler.AddContact)
			pr.Delete("/sos/contacts/{id}", sosHandler.DeleteContact)
			pr.Post("/sos/alert", sosHandler.TriggerAlert)
			pr.Get("/sos/alerts", sosHandler.AlertHistory)
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("server stopped")
}
