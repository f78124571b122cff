// Package app wires the store, SNMP dialer, poller and scheduler from a
// Config. Both binaries build on it.
package app

import (
	"context"

	"go-portlock/internal/config"
	"go-portlock/internal/db"
	"go-portlock/internal/jobs"
	"go-portlock/internal/log"
	"go-portlock/internal/oid"
	"go-portlock/internal/poller"
	"go-portlock/internal/scheduler"
	"go-portlock/internal/snmp"
)

type App struct {
	Config    *config.Config
	Store     *db.Store
	Poller    *poller.Poller
	Scheduler *scheduler.Scheduler
}

// New opens the database and builds the engine. durable controls whether
// timed blocks also queue an at(1) job, with its id kept in the database.
func New(ctx context.Context, cfg *config.Config, durable bool) (*App, error) {
	log.Configure(cfg.LogLevel, cfg.LogFormat)

	if cfg.OIDNamesPath != "" {
		if err := oid.Load(cfg.OIDNamesPath); err != nil {
			log.Error("Failed to load OID names", "path", cfg.OIDNamesPath, "error", err)
		}
	}

	store, err := db.Open(cfg.DBPath, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}

	dialer := &snmp.GoSNMPDialer{
		Port:           cfg.SNMPPort,
		ReadCommunity:  cfg.ReadCommunity,
		WriteCommunity: cfg.WriteCommunity,
		Timeout:        cfg.SNMPTimeout,
		Retries:        cfg.SNMPRetries,
		MaxRepetitions: cfg.SNMPMaxRepetitions,
	}

	p := poller.New(store, dialer, poller.NewARPTableResolver(), cfg.ScanConcurrency)

	var d scheduler.Durable
	if durable && cfg.DurableRevert {
		d = jobs.NewAtScheduler(cfg.PortctlBin, store)
	}

	return &App{
		Config:    cfg,
		Store:     store,
		Poller:    p,
		Scheduler: scheduler.New(ctx, dialer, p, d),
	}, nil
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.Store.Close()
}
