// The server binary exposes the CRUD + monitoring control API. Without
// OVH credentials it still serves CRUD; registrar-dependent endpoints
// answer 503 until the credentials are configured.
package main

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"domainsniper/config"
	"domainsniper/handlers"
	"domainsniper/models"
	"domainsniper/monitor"
	"domainsniper/registrar"
	ovhclient "domainsniper/registrar/ovh"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := models.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	store := models.NewStore(db)

	var client registrar.Client
	var sched *monitor.Scheduler
	if cfg.RegistrarConfigured() {
		c, err := ovhclient.NewClient(ovhclient.Options{
			Endpoint:    cfg.OVHEndpoint,
			AppKey:      cfg.OVHAppKey,
			AppSecret:   cfg.OVHAppSecret,
			ConsumerKey: cfg.OVHConsumerKey,
			Subsidiary:  cfg.OVHSubsidiary,
			Timeout:     cfg.RequestTimeout,
		})
		if err != nil {
			logger.Error("registrar client initialization failed", "error", err)
			os.Exit(1)
		}
		client = c
		sched = monitor.New(store, client, monitor.Config{
			Interval:             cfg.CheckInterval,
			Delay:                cfg.CheckDelay,
			DisableAfterPurchase: cfg.DisableMonitoringAfterPurchase,
		}, logger)
	} else {
		logger.Warn("running in CRUD-only mode, registrar endpoints disabled",
			"missing", cfg.MissingCredentials())
	}

	engine := html.New("./templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	handlers.RegisterHealth(app, store, client)
	handlers.RegisterDomains(app, store)
	handlers.RegisterMonitoring(app, store, sched)
	handlers.RegisterDashboard(app, store, sched, client)

	logger.Info("domain sniper server listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
