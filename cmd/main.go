package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	_ "github.com/chat-invoicing-microservice/docs"
	"github.com/chat-invoicing-microservice/pkg/api"
	"github.com/chat-invoicing-microservice/pkg/chatparse"
	"github.com/chat-invoicing-microservice/pkg/config"
	"github.com/chat-invoicing-microservice/pkg/invoice"
	"github.com/chat-invoicing-microservice/pkg/logger"
	"github.com/chat-invoicing-microservice/pkg/pdf"
)

// @title Invoice Generator API
// @version 1.0
// @description Generates PDF invoices with UPI payment QR codes from free-form purchase chat messages.
// @BasePath /api

func main() {
	app := &cli.App{
		Name:  "invoice-generator",
		Usage: "chat-to-invoice generation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Value:   "8080",
				Usage:   "HTTP listen port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "path to an optional .env file",
			},
			&cli.StringFlag{
				Name:    "env",
				Value:   "development",
				Usage:   "runtime environment (development or production)",
				EnvVars: []string{"APP_ENV"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load(c.String("env-file"))

	log, err := logger.New(c.String("env"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	log.Info("starting invoice generator",
		zap.String("port", c.String("port")),
		zap.String("business_name", cfg.BusinessName),
		zap.Float64("gst_rate", cfg.GSTRate),
		zap.String("counter_file", cfg.CounterFile),
	)
	if !cfg.GeminiConfigured() {
		log.Warn("GEMINI_API_KEY not set, invoice generation will fail")
	}

	handler := api.New(
		cfg,
		chatparse.New(chatparse.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel), cfg.ParseTimeout),
		invoice.NewAllocator(invoice.NewFileCounterStore(cfg.CounterFile), cfg.InvoicePrefix),
		pdf.NewRenderer(),
		log,
	)

	srv := &http.Server{
		Addr:        ":" + c.String("port"),
		Handler:     handler.Router(),
		ReadTimeout: 15 * time.Second,
		// Generation waits on one Gemini call; keep the write window
		// comfortably above the parse timeout.
		WriteTimeout: cfg.ParseTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
