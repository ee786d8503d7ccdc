// Package mariadb implements the store repositories on MariaDB/MySQL for
// deployments without PostgreSQL. Face encodings are stored as JSON text and
// matching always goes through the engine's scan (no vector column type).
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// normalizeDSN ensures parseTime is enabled so timestamps come back as
// time.Time.
func normalizeDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		student_id    VARCHAR(64) PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		course        VARCHAR(128) NOT NULL,
		year          VARCHAR(32) NOT NULL DEFAULT '',
		face_encoding TEXT,
		attendance    TEXT,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX students_course_idx (course)
	)`,
	`CREATE TABLE IF NOT EXISTS exams (
		id        BIGINT AUTO_INCREMENT PRIMARY KEY,
		course_id VARCHAR(128) NOT NULL,
		exam_name VARCHAR(255) NOT NULL,
		exam_date TIMESTAMP NOT NULL,
		exam_day  DATE NOT NULL,
		UNIQUE KEY exams_course_day_idx (course_id, exam_day)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id         CHAR(36) PRIMARY KEY,
		student_id VARCHAR(64) NOT NULL,
		name       VARCHAR(255) NOT NULL,
		course     VARCHAR(128) NOT NULL,
		year       VARCHAR(32) NOT NULL DEFAULT '',
		exam_name  VARCHAR(255) NOT NULL,
		exam_date  CHAR(10) NOT NULL,
		status     VARCHAR(16) NOT NULL,
		ts         TIMESTAMP NOT NULL,
		UNIQUE KEY attendance_identity_idx (student_id, exam_name, exam_date),
		INDEX attendance_exam_date_idx (exam_date)
	)`,
}

// Migrate creates the schema when missing.
func (p *Pool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Open creates a pool and ensures the schema exists.
func Open(dsn string) (*Pool, error) {
	pool, err := NewPool(dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply MariaDB schema: %w", err)
	}
	return pool, nil
}
