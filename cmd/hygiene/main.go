package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"collabhub/internal/config"
	"collabhub/internal/db"
	"collabhub/internal/repository"
	"collabhub/internal/service"
)

// hygiene ejecuta una vez las limpiezas programadas, para despliegues sin scheduler propio.
func main() {
	job := flag.String("job", "all", "jobs to run: minutely, daily or all")
	flag.Parse()

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	hygiene := service.NewHygieneService(logger, repository.NewPgHygieneRepository(pool))
	switch *job {
	case "minutely":
		hygiene.RunMinutely()
	case "daily":
		hygiene.RunDaily()
	case "all":
		hygiene.RunMinutely()
		hygiene.RunDaily()
	default:
		log.Fatalf("unknown job %q", *job)
	}
	logger.Info("hygiene run finished", zap.String("job", *job))
}
