package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	apperrors "sjsage522/estateworker/pkg/errors"
)

const insertBatchSize = 50

var entryColumns = []string{
	"type", "location", "sub_location", "items",
	"median_price", "mean_price", "min_price", "max_price",
	"median_m2", "mean_m2", "min_m2", "max_m2",
	"median_price_m2", "mean_price_m2", "min_price_m2", "max_price_m2",
	"created_at",
}

// PostgresStore writes entries to the estate_entries table
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore opens a connection, waits for the server and migrates
// the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewStorage("postgres", "open failed", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, apperrors.NewStorage("postgres", "ping failed after retries", err)
	}

	s := &PostgresStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorage("postgres", "migrate failed", err)
	}

	logger.ForStore().Info().Msg("Connected to PostgreSQL")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS estate_entries (
			id              BIGSERIAL PRIMARY KEY,
			type            TEXT             NOT NULL,
			location        TEXT             NOT NULL,
			sub_location    TEXT             NOT NULL,
			items           INTEGER          NOT NULL,
			median_price    DOUBLE PRECISION,
			mean_price      DOUBLE PRECISION,
			min_price       DOUBLE PRECISION,
			max_price       DOUBLE PRECISION,
			median_m2       DOUBLE PRECISION,
			mean_m2         DOUBLE PRECISION,
			min_m2          DOUBLE PRECISION,
			max_m2          DOUBLE PRECISION,
			median_price_m2 DOUBLE PRECISION,
			mean_price_m2   DOUBLE PRECISION,
			min_price_m2    DOUBLE PRECISION,
			max_price_m2    DOUBLE PRECISION,
			created_at      TIMESTAMPTZ      NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_estate_entries_group
			ON estate_entries(type, location, sub_location, created_at DESC);
	`)
	return err
}

// Insert writes entries in batches inside one transaction
func (s *PostgresStore) Insert(ctx context.Context, entries []stats.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stamped := stamp(entries, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorage("postgres", "begin failed", err)
	}
	defer tx.Rollback()

	for i := 0; i < len(stamped); i += insertBatchSize {
		end := min(i+insertBatchSize, len(stamped))
		query, args := buildInsert(stamped[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewStorage("postgres", "insert entries failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorage("postgres", "commit failed", err)
	}
	return nil
}

func buildInsert(batch []stats.Entry) (string, []interface{}) {
	width := len(entryColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, e := range batch {
		placeholders := make([]string, width)
		for col := range placeholders {
			placeholders[col] = fmt.Sprintf("$%d", idx*width+col+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			e.Type, e.Location, e.SubLocation, e.Items,
			e.MedianPrice, e.MeanPrice, e.MinPrice, e.MaxPrice,
			e.MedianM2, e.MeanM2, e.MinM2, e.MaxM2,
			e.MedianPriceM2, e.MeanPriceM2, e.MinPriceM2, e.MaxPriceM2,
			e.CreatedAt,
		)
	}

	query := fmt.Sprintf("INSERT INTO estate_entries (%s) VALUES %s",
		strings.Join(entryColumns, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}

// Close closes the database handle
func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}
