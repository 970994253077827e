package db

import (
	"fmt"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Handle struct {
	DB     *gorm.DB
	Driver string
	DSN    string
}

// Open otwiera magazyn wg konfiguracji. Pusty driver = sqlite w katalogu
// aplikacji (domyślna, bez-CGO ścieżka — glebarez). MySQL/Postgres przez DSN.
func Open(driver, dsn, appDir string) (*Handle, error) {
	var dial gorm.Dialector
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = filepath.Join(appDir, "possync.db")
		}
		dial = sqlite.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("nieznany driver bazy: %q", driver)
	}

	gdb, err := gorm.Open(dial, &gorm.Config{
		// Logger: logger.Default.LogMode(logger.Info), // włącz jeśli chcesz verbose SQL
	})
	if err != nil {
		return nil, err
	}
	return &Handle{DB: gdb, Driver: driver, DSN: dsn}, nil
}

// OpenAt — skrót na domyślną bazę sqlite w katalogu aplikacji.
func OpenAt(dir string) (*Handle, error) {
	return Open("sqlite", "", dir)
}
