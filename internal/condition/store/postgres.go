package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

// Querier is the part of *pgxpool.Pool used by PostgresStore.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PostgresStore struct {
	db          Querier
	table       string
	tenantField string
}

func NewPostgresStore(db Querier, table, tenantField string) (*PostgresStore, error) {
	if table == "" {
		return nil, errors.New("postgres store: table name is empty")
	}
	return &PostgresStore{
		db:          db,
		table:       table,
		tenantField: tenantField,
	}, nil
}

func (s *PostgresStore) Source() string {
	return SourcePostgres
}

func (s *PostgresStore) query(tenant string) (string, []any) {
	q := "SELECT * FROM " + pgx.Identifier{s.table}.Sanitize()
	if s.tenantField == "" || tenant == "" {
		return q, nil
	}
	return q + " WHERE " + pgx.Identifier{s.tenantField}.Sanitize() + " = $1", []any{tenant}
}

func (s *PostgresStore) FetchAll(ctx context.Context, tenant string) (_ *records.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.postgres.fetchAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("table", s.table),
		attribute.String("tenant", tenant),
	)

	q, args := s.query(tenant)
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var out []records.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, unavailable("read row", err)
		}
		if len(values) != len(columns) {
			return nil, unavailable("read row", fmt.Errorf("got %d values for %d columns", len(values), len(columns)))
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
	return records.NewSnapshot(tenant, SourcePostgres, columns, out), nil
}
