package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/attempt"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/httpserver"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/match"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/scheduler"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/stats"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	ctx := context.Background()
	store := storage.NewSQLite(db)
	if err := seedCatalog(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("seed player catalog")
	}

	selector := answer.New(store)
	agg := stats.New(store)
	tracker := attempt.New(store, selector, agg)
	mm := match.New(match.Config{}, store, selector)
	go mm.Run(ctx)

	worker, err := scheduler.New(selector)
	if err != nil {
		log.Fatal().Err(err).Msg("create scheduler")
	}
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start scheduler")
	}
	defer worker.Stop()

	srv := httpserver.New(db, store, selector, tracker, agg, mm)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting leaguewordle backend")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
