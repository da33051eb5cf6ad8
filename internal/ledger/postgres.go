package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// PostgresSink persists one row per terminal JobExecution, grounded on the
// teacher's pkg/storage/postgres.BaseStore query-helper shape.
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink opens dsn, runs pending migrations from migrationsPath,
// and returns a ready Sink.
func NewPostgresSink(dsn, migrationsPath string) (*PostgresSink, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect: %w: %v", ingesterr.ErrConfig, err)
	}

	if migrationsPath != "" {
		if err := runMigrations(db, migrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &PostgresSink{db: db}, nil
}

func runMigrations(db *sqlx.DB, migrationsPath string) error {
	driver, err := migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("ledger: migration driver: %w: %v", ingesterr.ErrConfig, err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("ledger: migration source: %w: %v", ingesterr.ErrConfig, err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ledger: migrate up: %w: %v", ingesterr.ErrConfig, err)
	}
	return nil
}

const insertEntry = `
INSERT INTO execution_history
	(dataset_id, execution_id, outcome, start_time, end_time, error_count, published_uri)
VALUES
	(:dataset_id, :execution_id, :outcome, :start_time, :end_time, :error_count, :published_uri)
ON CONFLICT (execution_id) DO NOTHING`

type entryRow struct {
	DatasetID    string    `db:"dataset_id"`
	ExecutionID  string    `db:"execution_id"`
	Outcome      string    `db:"outcome"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
	ErrorCount   int       `db:"error_count"`
	PublishedURI string    `db:"published_uri"`
}

// Record inserts one history row, ignoring a duplicate execution id.
func (s *PostgresSink) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.NamedExecContext(ctx, insertEntry, entryRow{
		DatasetID:    entry.DatasetID,
		ExecutionID:  entry.ExecutionID,
		Outcome:      entry.Outcome,
		StartTime:    entry.StartTime,
		EndTime:      entry.EndTime,
		ErrorCount:   entry.ErrorCount,
		PublishedURI: entry.PublishedURI,
	})
	if err != nil {
		return fmt.Errorf("ledger: insert: %w: %v", ingesterr.ErrInternal, err)
	}
	return nil
}

// Close releases the underlying database connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
