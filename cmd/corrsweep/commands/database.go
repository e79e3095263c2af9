package commands

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/db"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/logger"
	"github.com/teranos/corrsweep/sweep"
)

// openDatabase opens and migrates the run database.
// If dbPath is empty, it loads from am config.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := am.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		dbPath = cfg.GetDatabasePath()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
		}
	}

	database, err := db.OpenWithMigrations(dbPath, logger.ComponentLogger("db"))
	if err != nil {
		return nil, errors.Wrapf(err, "database %s", dbPath)
	}
	return database, nil
}

// openStore opens the run store. The caller closes the returned database.
func openStore(dbPath string) (*sql.DB, *sweep.Store, error) {
	database, err := openDatabase(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return database, sweep.NewStore(database, logger.ComponentLogger("sweep.store")), nil
}
