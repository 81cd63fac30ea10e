package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	config "github.com/medscribe/backend/config/scribe"
	"github.com/medscribe/backend/pkg/logger"
	"github.com/medscribe/backend/services/scribe/clients/predict"
	"github.com/medscribe/backend/services/scribe/clients/speech"
	"github.com/medscribe/backend/services/scribe/server"
	"github.com/medscribe/backend/services/scribe/storage"
	"github.com/medscribe/backend/services/scribe/usecase"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})

	cfg := config.MustLoad()

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		return
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := storage.Open(cfg.Database)
	if err != nil {
		return err
	}

	if err := storage.Migrate(db); err != nil {
		return err
	}

	stg := storage.New(db)
	speechClient := speech.New(&cfg.Speech)
	predictClient := predict.New(&cfg.Predict)
	usc := usecase.New(stg, speechClient, predictClient)

	srv := server.New(cfg, usc, log)
	return srv.Start(ctx)
}
