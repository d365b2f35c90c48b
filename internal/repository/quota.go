package repository

//go:generate mockgen -source=quota.go -destination=mocks/mocks.go -package=mocks ClientQuotaStore

import (
	"context"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
)

// ApplyFunc mutates rec in place and reports whether the mutation must be persisted.
// It may be invoked more than once per Apply call when a store retries on conflict,
// always against a freshly loaded record.
type ApplyFunc func(rec *models.ClientQuotaRecord) bool

// ClientQuotaStore persists quota records. Apply is the only write path and is
// atomic per client id: no other Apply for the same id observes an intermediate state.
type ClientQuotaStore interface {
	// Apply loads the record for clientID (creating the initial free-tier record
	// stamped with now if none exists), runs fn and persists the result.
	Apply(ctx context.Context, clientID string, now time.Time, fn ApplyFunc) (models.ClientQuotaRecord, error)

	// Get returns nil, nil when the client has never been seen.
	Get(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error)

	// DeleteStale removes records whose last accepted request is before the cutoff.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)

	Ping(ctx context.Context) error
}
