package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"
)

// ErrStoreUnavailable wraps every failure to reach or read the backing store.
var ErrStoreUnavailable = errors.New("record store unavailable")

const (
	SourcePostgres  = "postgres"
	SourcePostgREST = "postgrest"
	SourceSQLite    = "sqlite"
)

// RecordStore returns every row of the condition table for one tenant.
// An empty tenant means no tenant filter. Zero rows is a valid snapshot.
//
//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=store_test
type RecordStore interface {
	FetchAll(ctx context.Context, tenant string) (*records.Snapshot, error)
	Source() string
}

// FetchObserver is notified about each fetch against the backing store and
// each snapshot cache lookup.
type FetchObserver interface {
	ObserveFetch(source string, took time.Duration, err error)
	ObserveCache(result string)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
