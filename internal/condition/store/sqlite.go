package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

// SQLiteStore reads a local export of the condition table.
type SQLiteStore struct {
	db          *sql.DB
	table       string
	tenantField string
}

// OpenSQLite opens the database file at dsn with the pure go sqlite driver.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB, table, tenantField string) (*SQLiteStore, error) {
	if table == "" {
		return nil, errors.New("sqlite store: table name is empty")
	}
	return &SQLiteStore{
		db:          db,
		table:       table,
		tenantField: tenantField,
	}, nil
}

func (s *SQLiteStore) Source() string {
	return SourceSQLite
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLiteStore) FetchAll(ctx context.Context, tenant string) (_ *records.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sqlite.fetchAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", s.table))

	q := "SELECT * FROM " + quoteIdent(s.table)
	var args []any
	if s.tenantField != "" && tenant != "" {
		q += " WHERE " + quoteIdent(s.tenantField) + " = ?"
		args = append(args, tenant)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, unavailable("columns", err)
	}

	var out []records.Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, unavailable("scan row", err)
		}
		row := make(records.Row, len(columns))
		for i, c := range columns {
			row[c] = records.NormalizeRawValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating rows", err)
	}

	span.SetAttributes(attribute.Int("rows", len(out)))
	return records.NewSnapshot(tenant, SourceSQLite, columns, out), nil
}
