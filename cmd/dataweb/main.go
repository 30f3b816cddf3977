package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beamline-io/dataweb/internal/archive"
	"github.com/beamline-io/dataweb/internal/config"
	"github.com/beamline-io/dataweb/internal/lib/logger/sl"
	"github.com/beamline-io/dataweb/internal/scraper"
	"github.com/beamline-io/dataweb/internal/store"
	"github.com/beamline-io/dataweb/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting dataweb",
		slog.String("env", cfg.Env),
		slog.String("address", cfg.Web.Address),
	)

	instCfg := config.MustLoadInstruments(cfg.Instruments.ConfigPath)

	log.Info("loaded instruments config",
		slog.Int("instruments", len(instCfg.Instruments)),
	)

	names := make([]string, 0, len(instCfg.Instruments))
	for _, inst := range instCfg.Instruments {
		names = append(names, inst.Name)
	}
	st := store.New(names)

	var arch archive.Archive
	if cfg.Archive.Enabled {
		sqliteArch, err := archive.NewSQLiteArchive(log, cfg.Archive.Path)
		if err != nil {
			log.Error("failed to create archive", sl.Err(err))
			os.Exit(1)
		}
		arch = sqliteArch
		log.Info("archive enabled", slog.String("path", cfg.Archive.Path))
	}

	client := scraper.NewClient(log, cfg.Poll.Timeout)
	manager := scraper.NewManager(log, cfg, instCfg.Instruments, client, st, arch)

	webServer := web.NewServer(log, &cfg.Web, st, arch)

	webServer.AddChecker(web.NewScraperHealthChecker(st.LastFetch, cfg.Poll.FailedInterval))

	if arch != nil {
		if sqliteArch, ok := arch.(*archive.SQLiteArchive); ok {
			webServer.AddChecker(web.NewArchiveHealthChecker(sqliteArch.Count))
		}
	}

	if err := webServer.Start(); err != nil {
		log.Error("failed to start web server", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	manager.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Stop()

	if err := webServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop web server", sl.Err(err))
	}

	if arch != nil {
		if err := arch.Close(); err != nil {
			log.Error("failed to close archive", sl.Err(err))
		}
	}

	log.Info("dataweb stopped")
}
