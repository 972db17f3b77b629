package main

import (
	"database/sql"
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"unistay/internal/adapters/observability"
	"unistay/internal/shared"
)

// Schema changes ship exclusively through these versioned migrations; the
// API process only verifies the version at startup.
func main() {
	var (
		dir  = flag.String("dir", "migrations", "migrations directory")
		down = flag.Bool("down", false, "roll back one step instead of migrating up")
	)
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	db, err := sql.Open("mysql", cfg.MySQLDSN+"&multiStatements=true")
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("migrate driver init failed")
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+*dir, "mysql", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate init failed")
	}

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("read schema version failed")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema up to date")
}
