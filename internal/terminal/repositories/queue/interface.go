// Package queue implements the terminal's durable outbound mutation queue.
// Every local mutation appends one snapshot here before the mutating call
// returns; the push synchronizer is the only reader. Entries survive process
// restart and are removed solely on server acknowledgement.
package queue

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

type Repository interface {
	// Enqueue appends a snapshot for the given type. It never deduplicates:
	// several entries for the same entity are resolved by the server's
	// idempotent upsert, with the last submitted entry winning.
	Enqueue(ctx context.Context, entityType models.EntityType, payload json.RawMessage) error

	// ListByType returns pending entries for one type in insertion order.
	ListByType(ctx context.Context, entityType models.EntityType) ([]*models.QueueEntry, error)

	// DeleteByIDs removes exactly the listed entries after a successful push.
	DeleteByIDs(ctx context.Context, entityType models.EntityType, ids []int64) error

	// IncrementRetry bumps retry counters and records the error on the listed
	// entries without removing them.
	IncrementRetry(ctx context.Context, entityType models.EntityType, ids []int64, lastError string) error

	// CountPending returns the total number of queued entries across types,
	// for the UI pending-items indicator.
	CountPending(ctx context.Context) (int, error)
}
