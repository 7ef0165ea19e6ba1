package main

import (
	"context"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/auth"
	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/database"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/repository"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
	"github.com/Wh1teCaat/fitness-companion/internal/server"
	"github.com/Wh1teCaat/fitness-companion/internal/service"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("🚒 failed to load config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("🚒 failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.SlogLogger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg.Database, database.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info(ctx, "database ready", "driver", cfg.Database.Driver)

	tokens, err := auth.NewTokenManager(cfg.Jwt)
	if err != nil {
		return err
	}

	loader := classifier.NewLoader(func() (classifier.Classifier, error) {
		return classifier.Open(cfg.Classifier)
	}, logger.With("component", "classifier"))

	// warm up once; the web app keeps running without a model and /chat reports it
	if c, err := loader.Get(ctx); err == nil {
		if closer, ok := c.(io.Closer); ok {
			defer closer.Close()
		}
	}

	engine := responder.New(rand.NewSource(time.Now().UnixNano()))
	svc := service.NewService(repository.NewRepository(db), tokens, loader, engine, service.WithLocation(loc))

	srv, err := server.NewServer(svc, loader, cfg.Session.Secret, logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx, cfg.Server)
}
