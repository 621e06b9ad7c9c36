package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registra el driver pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jhoicas/garment-ledger/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate aplica las migraciones embebidas sobre databaseURL (postgres:// o postgresql://).
func Migrate(databaseURL string, log *logger.Logger) error {
	log.Info().Msg("aplicando migraciones de base de datos")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	m.Log = &migrateLogger{log: log.Component("migrate")}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("migraciones: sin cambios")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// pgx5URL cambia el esquema al que registra el driver pgx/v5 de golang-migrate.
func pgx5URL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

// migrateLogger adapta logger.Logger a migrate.Logger.
type migrateLogger struct {
	log *logger.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}

func (l *migrateLogger) Verbose() bool { return false }
