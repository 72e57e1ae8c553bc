// Package main is the entry point for the sales gamification scoring service.
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salesquest/internal/config"
	"salesquest/internal/engine"
	"salesquest/internal/httpapi"
	"salesquest/internal/model"
	"salesquest/internal/pkg/db"
	"salesquest/internal/repository"
	"salesquest/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	progressRepo := repository.NewProgressRepository(dbPool.Pool)
	awardRepo := repository.NewAwardRepository(dbPool.Pool)

	// Initialize engine components
	streakCalc := engine.NewStreakCalculator(ledgerRepo, engine.RetryPolicy{
		MaxAttempts:     cfg.Ledger.RetryAttempts,
		InitialInterval: cfg.Ledger.RetryInitial,
		MaxInterval:     cfg.Ledger.RetryMax,
	})
	milestoneEngine := engine.NewMilestoneEngine(milestoneTables(&cfg.Milestones))

	// Initialize services
	progressService := service.NewProgressService(
		streakCalc,
		milestoneEngine,
		progressRepo,
		awardRepo,
		service.Goals{
			Today: cfg.Season.TodayGoal,
			Week:  cfg.Season.WeekGoal,
			Month: cfg.Season.MonthGoal,
		},
		nil,
	)
	activityService := service.NewActivityService(
		ledgerRepo,
		awardRepo,
		progressService,
		salePoints(&cfg.Season),
		nil,
	)

	// Initialize router
	router := chi.NewRouter()
	httpapi.RegisterRoutes(router, activityService, progressService)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server is starting...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// milestoneTables converts configured threshold tables to engine tables,
// falling back to the built-in defaults when the config is empty.
func milestoneTables(cfg *config.MilestonesConfig) map[engine.StreakType][]engine.MilestoneReward {
	if len(cfg.Full) == 0 && len(cfg.Participation) == 0 {
		return nil
	}
	tables := map[engine.StreakType][]engine.MilestoneReward{}
	for threshold, xp := range cfg.Full {
		tables[engine.StreakFull] = append(tables[engine.StreakFull], engine.MilestoneReward{Threshold: threshold, XP: xp})
	}
	for threshold, xp := range cfg.Participation {
		tables[engine.StreakParticipation] = append(tables[engine.StreakParticipation], engine.MilestoneReward{Threshold: threshold, XP: xp})
	}
	return tables
}

// salePoints converts the configured sale point table, falling back to the
// built-in defaults when the config is empty.
func salePoints(cfg *config.SeasonConfig) map[model.PolicyType]int64 {
	if len(cfg.SalePoints) == 0 {
		return nil
	}
	points := map[model.PolicyType]int64{}
	for policy, value := range cfg.SalePoints {
		points[model.PolicyType(policy)] = value
	}
	return points
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create user_progress table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT PRIMARY KEY,
			full_streak INT NOT NULL DEFAULT 0,
			participation_streak INT NOT NULL DEFAULT 0,
			season_points BIGINT NOT NULL DEFAULT 0 CHECK (season_points >= 0),
			lifetime_xp BIGINT NOT NULL DEFAULT 0 CHECK (lifetime_xp >= 0),
			last_streak_update DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_user_progress_season_points ON user_progress(season_points DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: user_progress table created")

	// Migration 2: Create achieved_milestones table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS achieved_milestones (
			user_id TEXT NOT NULL,
			milestone_key TEXT NOT NULL,
			xp BIGINT NOT NULL,
			awarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, milestone_key)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: achieved_milestones table created")

	// Migration 3: Create daily_activity table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_activity (
			user_id TEXT NOT NULL,
			activity_date DATE NOT NULL,
			morning_completed BOOLEAN NOT NULL DEFAULT FALSE,
			evening_completed BOOLEAN NOT NULL DEFAULT FALSE,
			sale_count INT NOT NULL DEFAULT 0 CHECK (sale_count >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, activity_date)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: daily_activity table created")

	// Migration 4: Create daily_awards table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_awards (
			user_id TEXT NOT NULL,
			activity_date DATE NOT NULL,
			award_key TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			points BIGINT NOT NULL CHECK (points >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, activity_date, award_key)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_awards_user_type ON daily_awards(user_id, activity_date, activity_type);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: daily_awards table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
