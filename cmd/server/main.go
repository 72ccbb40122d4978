package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"judolog/internal/achievement"
	"judolog/internal/cache"
	"judolog/internal/config"
	"judolog/internal/db"
	"judolog/internal/handlers"
	mw "judolog/internal/middleware"
	"judolog/internal/moodtheme"
	"judolog/internal/notification"
	"judolog/internal/roles"
	"judolog/internal/services"
)

// redisPrefix namespaces every key this service writes to Redis.
const redisPrefix = "judolog:"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if err := dbConn.PingContext(startCtx); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(startCtx, dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	var (
		listCache  cache.Cache
		themeStore moodtheme.KVStore
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(startCtx).Err(); err != nil {
			logger.Fatal("failed to ping redis", zap.Error(err))
		}
		listCache = cache.NewRedis(rdb, redisPrefix)
		themeStore = moodtheme.NewRedisStore(rdb, redisPrefix)
	} else {
		logger.Warn("REDIS_URL not set; using in-process cache and theme store")
		listCache = cache.NewMemory()
		themeStore = moodtheme.NewMemoryStore()
	}
	cancelStart()

	encSvc, err := services.NewEncryptionService(cfg.EncryptionKey, cfg.BlindIndexKey)
	if err != nil {
		logger.Fatal("failed to init encryption", zap.Error(err))
	}

	entities := services.NewEntities(dbConn, encSvc, listCache, cfg.CacheTTL, logger.Named("crud"))
	roleStore := roles.NewStore(dbConn)
	achievementSvc := achievement.NewService(dbConn, logger.Named("achievement"))
	notificationStore := notification.NewStore(dbConn)
	applier := moodtheme.NewApplier(themeStore, logger.Named("moodtheme"))

	authHandler := handlers.NewAuthHandler(dbConn, encSvc, cfg.JWTSecret, logger)
	userHandler := handlers.NewUserHandler(dbConn, encSvc, roleStore, logger)
	dashboardHandler := handlers.NewDashboardHandler(dbConn, logger)
	migrateHandler := handlers.NewMigrateHandler(dbConn, encSvc, entities.Sessions, logger)
	achievementHandler := handlers.NewAchievementHandler(achievementSvc, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationStore, logger)
	moodHandler := handlers.NewMoodThemeHandler(applier, logger)
	trainerHandler := handlers.NewTrainerHandler(dbConn, roleStore, entities.Sessions, notificationStore, logger)
	adminHandler := handlers.NewAdminHandler(dbConn, roleStore, achievementSvc, logger)
	authMW := mw.NewAuthMiddleware(cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.Recoverer(logger))
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbConn.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)
		api.Post("/activity/classify", dashboardHandler.Classify)
		api.Get("/mood-themes", moodHandler.List)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/me", userHandler.GetMe)
			pr.Put("/me", userHandler.UpdateMe)

			pr.Route("/sessions", handlers.NewResource(entities.Sessions, logger).Routes)
			pr.Route("/exercises", handlers.NewResource(entities.Exercises, logger).Routes)
			pr.Route("/techniques", handlers.NewResource(entities.Techniques, logger).Routes)
			pr.Route("/tactical-notes", handlers.NewResource(entities.TacticalNotes, logger).Routes)
			pr.Route("/clubs", handlers.NewResource(entities.Clubs, logger).Routes)
			pr.Post("/migrate", migrateHandler.MigrateData)

			pr.Get("/dashboard", dashboardHandler.Get)
			pr.Get("/activity", dashboardHandler.Activity)

			pr.Get("/achievements", achievementHandler.List)
			pr.Get("/achievements/earned", achievementHandler.Earned)
			pr.Post("/achievements/evaluate", achievementHandler.Evaluate)
			pr.Post("/achievements/{id}/notified", achievementHandler.MarkNotified)

			pr.Get("/notifications", notificationHandler.List)
			pr.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			pr.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			pr.Delete("/notifications/{id}", notificationHandler.Delete)

			pr.Post("/mood-themes/suggest", moodHandler.Suggest)
			pr.Post("/mood-themes/apply", moodHandler.Apply)
			pr.Get("/mood-themes/current", moodHandler.Current)
			pr.Delete("/mood-themes/current", moodHandler.Reset)
			pr.Get("/mood-themes/history", moodHandler.History)

			pr.Route("/trainer", func(tr chi.Router) {
				tr.Use(mw.RequireRole(roleStore, roles.Trainer, logger))
				tr.Get("/athletes", trainerHandler.Athletes)
				tr.Post("/athletes", trainerHandler.Assign)
				tr.Delete("/athletes/{athleteID}", trainerHandler.Unassign)
				tr.Get("/athletes/{athleteID}/sessions", trainerHandler.AthleteSessions)
			})

			pr.Route("/admin", func(ad chi.Router) {
				ad.Use(mw.RequireRole(roleStore, roles.Admin, logger))
				ad.Get("/overview", adminHandler.Overview)
				ad.Get("/badges", adminHandler.Badges)
				ad.Post("/badges", adminHandler.CreateBadge)
				ad.Put("/badges/{id}", adminHandler.UpdateBadge)
				ad.Post("/roles", adminHandler.AssignRole)
				ad.Delete("/roles", adminHandler.RevokeRole)
				ad.Post("/users/{id}/achievements/evaluate", adminHandler.EvaluateUser)
			})
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	if err := dbConn.Close(); err != nil {
		logger.Warn("close db", zap.Error(err))
	}
	logger.Info("server stopped")
}
