// The sniper binary is the autonomous shape: it polls the watched
// domains forever at a fixed interval and requires working OVH
// credentials up front.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"domainsniper/config"
	"domainsniper/models"
	"domainsniper/monitor"
	ovhclient "domainsniper/registrar/ovh"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Error("missing OVH credentials", "variables", missing)
		os.Exit(1)
	}

	db, err := models.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Error("database initialization failed", "error", err)
		os.Exit(1)
	}
	store := models.NewStore(db)

	client, err := ovhclient.NewClient(ovhclient.Options{
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

	sched := monitor.New(store, client, monitor.Config{
		Interval:             cfg.CheckInterval,
		Delay:                cfg.CheckDelay,
		DisableAfterPurchase: cfg.DisableMonitoringAfterPurchase,
	}, logger)

	if err := sched.Start(); err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("domain monitoring started", "interval", cfg.CheckInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	_ = sched.Stop()
}
