package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/store/mariadb"
	"github.com/classtrack/classtrack/internal/store/postgres"
	"github.com/classtrack/classtrack/internal/web"
)

// openStores opens the configured storage backend, runs migrations and wires
// the repositories. PostgreSQL (DATABASE_URL) is the primary backend;
// MariaDB (MARIADB_DSN) is the fallback for deployments without pgvector.
// The returned closer shuts the connection pool down.
func openStores(cfg *config.Config) (web.Stores, io.Closer, error) {
	switch {
	case cfg.Database.URL != "":
		fmt.Println("Connecting to PostgreSQL...")
		pool, err := postgres.Open(&cfg.Database)
		if err != nil {
			return web.Stores{}, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return web.Stores{
			Roster: postgres.NewStudentRepository(pool),
			Exams:  postgres.NewExamRepository(pool),
			Ledger: postgres.NewAttendanceRepository(pool),
		}, pool, nil

	case cfg.Database.MariaDBDSN != "":
		fmt.Println("Connecting to MariaDB...")
		pool, err := mariadb.Open(cfg.Database.MariaDBDSN)
		if err != nil {
			return web.Stores{}, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		return web.Stores{
			Roster: mariadb.NewStudentRepository(pool),
			Exams:  mariadb.NewExamRepository(pool),
			Ledger: mariadb.NewAttendanceRepository(pool),
		}, pool, nil

	default:
		return web.Stores{}, nil, errors.New("DATABASE_URL or MARIADB_DSN environment variable is required")
	}
}
