package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-portlock/internal/app"
	"go-portlock/internal/config"
	"go-portlock/internal/log"
	"go-portlock/internal/web"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, true)
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Start background SNMP poller
	go a.Poller.StartPeriodicScanning(ctx, cfg.PollInterval)

	server := fiber.New(fiber.Config{DisableStartupMessage: true})
	web.SetupRoutes(server, a.Scheduler, a.Poller, a.Store)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		_ = server.Shutdown()
	}()

	addr := cfg.WebHost + ":" + cfg.WebPort
	log.Info("Server running", "addr", addr, "poll_interval", cfg.PollInterval, "durable_revert", cfg.DurableRevert)
	if err := server.Listen(addr); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
