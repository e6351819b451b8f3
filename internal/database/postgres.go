package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// PgRepository stores the registry in fixed tables and gives every entity
// its own message table, created and dropped at runtime.
type PgRepository struct {
	conn *sql.DB
}

func NewPgRepository(ctx context.Context, dsn string) (*PgRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PgRepository{conn: db}, nil
}

// NewPgRepositoryFromDB wraps an open handle without running migrations.
func NewPgRepositoryFromDB(db *sql.DB) *PgRepository {
	return &PgRepository{conn: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (db *PgRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *PgRepository) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrConditionFailed, err)
		}
	}
	return err
}

// expectAffected turns a conditional statement that touched nothing into
// ErrConditionFailed.
func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return mapPgError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

func registryTable(kind Kind) (string, error) {
	switch kind {
	case KindConversation:
		return "conversations", nil
	case KindGroup:
		return "chat_groups", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}
