package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/config"
	"github.com/qubzes/baiyit/internal/database"
	"github.com/qubzes/baiyit/internal/handlers"
	"github.com/qubzes/baiyit/internal/logger"
	"github.com/qubzes/baiyit/internal/routes"
	"github.com/qubzes/baiyit/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close(db)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	sessions := auth.NewManager(db, auth.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})

	permit := services.NewPermit(services.PermitConfig{
		PDPURL:        cfg.PermitPDPURL,
		APIURL:        cfg.PermitAPIURL,
		APIKey:        cfg.PermitAPIKey,
		ProjectID:     cfg.PermitProjectID,
		EnvironmentID: cfg.PermitEnvironmentID,
	})

	mailer := services.NewMailQueue(rdb)
	worker := services.NewMailWorker(rdb, services.SMTPConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		FromName: cfg.MailFromName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go worker.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "Baiyit API",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, routes.Deps{
		DB:        db,
		Sessions:  sessions,
		Checker:   permit,
		Directory: permit,
		Mailer:    mailer,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen error")
	}
}
