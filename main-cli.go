//go:build !windows || dev

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	conf "github.com/bartek5186/possync/internal/config"
	"github.com/bartek5186/possync/internal/db"
	logs "github.com/bartek5186/possync/internal/logs"
	syncer "github.com/bartek5186/possync/internal/syncer"
)

var ver = "1.0.0"

func main() {
	appDir := mustAppDataDir("possync")
	log := logs.New(filepath.Join(appDir, "app.log"), true)

	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		panic(err)
	}
	if firstRun {
		log.Info().Msgf("Utworzono domyślną konfigurację: %s", cfgPath)
	}

	dbh, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, appDir)
	if err != nil {
		log.Fatal().Err(err).Msg("DB open error")
	}
	if err := dbh.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("DB migrate error")
	}
	log.Info().Str("driver", dbh.Driver).Str("dsn", dbh.DSN).Msg("DB ready")
	sqlDB, _ := dbh.DB.DB()
	defer sqlDB.Close()

	log.Info().Msgf("POSSync %s (CLI) uruchomiony", ver)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := syncer.New(log, cfg, dbh.DB)

	if err := s.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Start nieudany")
	}

	<-ctx.Done()
	s.Stop()
	log.Info().Msg("POSSync zakończony")
}

func mustAppDataDir(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	p := filepath.Join(base, name)
	_ = os.MkdirAll(p, 0o755)
	return p
}
