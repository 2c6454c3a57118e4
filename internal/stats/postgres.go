package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads events straight from the downloads table.
type PostgresSource struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresSource connects to dsn. Close releases the pool.
func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("stats: connect: %w", err)
	}
	query := `SELECT component_type, component_name, COALESCE(category, '')
		FROM ` + pgx.Identifier{table}.Sanitize() + `
		ORDER BY id
		LIMIT $1 OFFSET $2`
	return &PostgresSource{pool: pool, query: query}, nil
}

// Page implements Source.
func (s *PostgresSource) Page(ctx context.Context, offset, limit int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, s.query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("stats: query: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.Type, &e.Name, &e.Category)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("stats: scan: %w", err)
	}
	return events, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}
