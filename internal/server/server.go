package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/reconciler"
	"github.com/rechargehub/rechargehub/internal/routes"
)

// Server wraps the Fiber application and the background reconciliation
// sweeper so both share one lifecycle.
type Server struct {
	app     *fiber.App
	cfg     config.Config
	sweeper *reconciler.Sweeper
}

// New instantiates the HTTP server and delegates dependency wiring to
// routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, broker *amqp.Connection, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	sweeper, err := routes.Setup(app, routes.Deps{
		Cfg:     cfg,
		DB:      db,
		Cache:   cache,
		Broker:  broker,
		Metrics: metrics.New(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, sweeper: sweeper}, nil
}

// Listen starts the reconciliation sweeper and the HTTP listener. It blocks
// until the listener stops.
func (s *Server) Listen() error {
	if err := s.sweeper.Start(); err != nil {
		return err
	}
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops the sweeper, waits for an in-flight sweep, then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	return s.app.ShutdownWithContext(ctx)
}
