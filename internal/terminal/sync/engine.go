// Package sync implements the terminal's offline-first synchronization
// engine: a connectivity monitor, a push synchronizer draining the durable
// queue in foreign-key dependency order, and a pull synchronizer applying
// the server's changed-since diff through per-type merge handlers.
//
// A sale never waits on this package. UI-side code appends to the durable
// queue and returns; everything here runs on a timer and is best effort.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/cursor"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/queue"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/synclog"
)

// API is the subset of the server client the engine needs.
type API interface {
	Health(ctx context.Context) error
	Push(ctx context.Context, entityType models.EntityType, payloads []json.RawMessage) (*models.PushResponse, error)
	Diff(ctx context.Context, since time.Time) (time.Time, map[models.EntityType]json.RawMessage, error)
}

// Prefetcher caches one image asset; failures are the caller's to ignore.
type Prefetcher interface {
	Prefetch(ctx context.Context, path string) error
}

// Config carries the engine's timing knobs.
type Config struct {
	// Interval drives the single periodic timer: each tick probes
	// connectivity and, when online, runs a full sync cycle.
	Interval time.Duration
	// ProbeTimeout bounds the health probe (short).
	ProbeTimeout time.Duration
	// PushTimeout bounds one batch upsert (longer than a probe).
	PushTimeout time.Duration
	// PullTimeout bounds one diff request plus merging.
	PullTimeout time.Duration
	// BackoffBase is the first retry delay for a failing entity type; it
	// doubles per consecutive failure and is capped at Interval.
	BackoffBase time.Duration
}

// Engine owns the durable queue and the cursor. Nothing else may mutate
// them; UI code reaches the queue only through the services layer's enqueue.
type Engine struct {
	cfg     Config
	api     API
	queue   queue.Repository
	cursor  cursor.Repository
	log     synclog.Repository
	mergers map[models.EntityType]MergeFunc
	images  Prefetcher
	monitor *Monitor
	logger  logging.Logger

	syncing atomic.Bool
	backoff *backoff
}

func NewEngine(
	cfg Config,
	api API,
	queueRepo queue.Repository,
	cursorRepo cursor.Repository,
	logRepo synclog.Repository,
	mergers map[models.EntityType]MergeFunc,
	images Prefetcher,
	logger logging.Logger,
) *Engine {
	return &Engine{
		cfg:     cfg,
		api:     api,
		queue:   queueRepo,
		cursor:  cursorRepo,
		log:     logRepo,
		mergers: mergers,
		images:  images,
		monitor: NewMonitor(api, cfg.ProbeTimeout, logger),
		logger:  logger,
		backoff: newBackoff(cfg.BackoffBase, cfg.Interval),
	}
}

// Online reports the connectivity state for the UI indicator.
func (e *Engine) Online() bool {
	return e.monitor.Online()
}

// Pending returns the queued-entries count for the UI indicator.
func (e *Engine) Pending(ctx context.Context) (int, error) {
	return e.queue.CountPending(ctx)
}

// Run drives the engine until ctx is cancelled: one ticker, each tick a
// probe and, when the server is reachable, a sync cycle. The cycle on the
// reconnection edge is the same cycle, just logged as a flush — it does not
// wait for an extra tick.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	// Probe immediately at startup instead of idling a full interval.
	e.tick(ctx)

	for {
		select {
		case <-ticker.C:
			e.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	online, cameOnline := e.monitor.Check(ctx)
	if !online {
		return
	}
	if cameOnline {
		if pending, err := e.queue.CountPending(ctx); err == nil && pending > 0 {
			e.logger.Info(ctx, "connection restored, flushing offline queue", "pending", pending)
		}
	}
	if err := e.SyncAll(ctx); err != nil {
		e.logger.Warn(ctx, "sync cycle incomplete", "error", err)
	}
}

// SyncAll runs one full cycle: pull first, so incoming authoritative state
// lands before local changes are resubmitted, then push. Only one cycle runs
// at a time; a cycle requested while another is in flight is skipped, never
// queued — the next tick covers it.
func (e *Engine) SyncAll(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return common.ErrorSyncInFlight
	}
	defer e.syncing.Store(false)

	var pullErr error
	if pullErr = e.pull(ctx); pullErr != nil {
		e.logger.Warn(ctx, "pull failed, cursor not advanced", "error", pullErr)
	}

	e.push(ctx)

	return pullErr
}

// push drains the queue type by type in foreign-key dependency order. A
// failing type does not block the types after it; its entries stay queued
// with bumped retry counters and are picked up again next cycle, by which
// time the record they depend on (a closure, say) may have landed.
func (e *Engine) push(ctx context.Context) {
	now := time.Now()
	for _, entityType := range models.PushOrder {
		if !e.backoff.allow(entityType, now) {
			continue
		}
		if err := e.pushType(ctx, entityType); err != nil {
			e.backoff.failure(entityType, now)
		} else {
			e.backoff.success(entityType)
		}
	}
}

func (e *Engine) pushType(ctx context.Context, entityType models.EntityType) error {
	entries, err := e.queue.ListByType(ctx, entityType)
	if err != nil {
		e.logger.Error(ctx, "failed to read queue", "type", entityType, "error", err)
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, len(entries))
	payloads := make([]json.RawMessage, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
		payloads[i] = entry.Payload
	}

	pushCtx, cancel := context.WithTimeout(ctx, e.cfg.PushTimeout)
	defer cancel()

	resp, err := e.api.Push(pushCtx, entityType, payloads)
	if err != nil {
		// Ambiguous or failed: entries stay queued, retried next cycle.
		if retryErr := e.queue.IncrementRetry(ctx, entityType, ids, err.Error()); retryErr != nil {
			e.logger.Error(ctx, "failed to record retry", "type", entityType, "error", retryErr)
		}
		e.appendLog(ctx, entityType, 0, false, err.Error())
		e.logger.Warn(ctx, "push failed", "type", entityType, "entries", len(ids), "error", err)
		return err
	}

	// A skip (a cash movement whose closure has not landed server-side) is
	// not an acknowledgment of that record: it stays queued with a bumped
	// retry counter and goes out again next cycle, after the closure batch
	// has had another chance.
	ackIDs, heldIDs := splitAcknowledged(entries, resp.SkippedLocalIDs)
	if len(heldIDs) > 0 {
		if retryErr := e.queue.IncrementRetry(ctx, entityType, heldIDs, "skipped by server, dependency not yet synced"); retryErr != nil {
			e.logger.Error(ctx, "failed to record retry", "type", entityType, "error", retryErr)
		}
		e.logger.Warn(ctx, "server skipped entries, keeping them queued", "type", entityType, "skipped", len(heldIDs))
	}

	if len(ackIDs) > 0 {
		if err := e.queue.DeleteByIDs(ctx, entityType, ackIDs); err != nil {
			// Entries already acknowledged; leaving them queued only causes a
			// redundant idempotent resubmission next cycle.
			e.logger.Error(ctx, "failed to dequeue acknowledged entries", "type", entityType, "error", err)
			return err
		}
	}
	e.appendLog(ctx, entityType, resp.Count, true, resp.Message)
	e.logger.Info(ctx, "pushed batch", "type", entityType, "entries", len(ids), "applied", resp.Count, "skipped", len(heldIDs))
	return nil
}

// splitAcknowledged partitions pushed queue entries into those the server
// accepted (or deduplicated) and those it reported as skipped, matched by the
// localId inside each entry's payload snapshot.
func splitAcknowledged(entries []*models.QueueEntry, skippedLocalIDs []int64) (ackIDs, heldIDs []int64) {
	if len(skippedLocalIDs) == 0 {
		for _, entry := range entries {
			ackIDs = append(ackIDs, entry.ID)
		}
		return ackIDs, nil
	}

	skipped := make(map[int64]bool, len(skippedLocalIDs))
	for _, id := range skippedLocalIDs {
		skipped[id] = true
	}
	for _, entry := range entries {
		var ref struct {
			LocalID int64 `json:"localId"`
		}
		if err := json.Unmarshal(entry.Payload, &ref); err == nil && skipped[ref.LocalID] {
			heldIDs = append(heldIDs, entry.ID)
			continue
		}
		ackIDs = append(ackIDs, entry.ID)
	}
	return ackIDs, heldIDs
}

// pull fetches everything changed since the cursor and merges it. The cursor
// advances to the server-reported time only after every returned collection
// has merged; any failure aborts the cycle and the same diff is retried
// wholesale next time.
func (e *Engine) pull(ctx context.Context) error {
	since, err := e.cursor.Get(ctx)
	if err != nil {
		return err
	}

	pullCtx, cancel := context.WithTimeout(ctx, e.cfg.PullTimeout)
	defer cancel()

	serverTime, batches, err := e.api.Diff(pullCtx, since)
	if err != nil {
		return err
	}

	merged := make(map[models.EntityType]bool, len(batches))
	for _, entityType := range models.PullOrder {
		batch, ok := batches[entityType]
		if !ok {
			continue
		}
		merged[entityType] = true
		if err := e.mergeBatch(ctx, entityType, batch); err != nil {
			return err
		}
	}
	// Types the server knows but this build has no fixed order for.
	for entityType, batch := range batches {
		if merged[entityType] {
			continue
		}
		if err := e.mergeBatch(ctx, entityType, batch); err != nil {
			return err
		}
	}

	if err := e.cursor.Advance(ctx, serverTime); err != nil {
		return err
	}

	e.prefetchImages(batches)
	return nil
}

func (e *Engine) mergeBatch(ctx context.Context, entityType models.EntityType, batch json.RawMessage) error {
	handler, ok := e.mergers[entityType]
	if !ok {
		// Fail open: dropping a batch is recoverable, the cursor has not
		// advanced and the next pull returns the same records.
		e.logger.Warn(ctx, "no merge handler registered, dropping batch", "type", entityType)
		return nil
	}
	if err := handler(ctx, batch); err != nil {
		return fmt.Errorf("merge %s: %w", entityType, err)
	}
	return nil
}

// prefetchImages spawns a best-effort background download for every image
// path mentioned in the pulled batches. Nothing waits on it and nothing
// checks its outcome.
func (e *Engine) prefetchImages(batches map[models.EntityType]json.RawMessage) {
	if e.images == nil {
		return
	}
	var paths []string
	for _, batch := range batches {
		var withImages []struct {
			ImagePath string `json:"imagePath"`
		}
		if err := json.Unmarshal(batch, &withImages); err != nil {
			continue
		}
		for _, item := range withImages {
			if item.ImagePath != "" {
				paths = append(paths, item.ImagePath)
			}
		}
	}
	if len(paths) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PullTimeout)
		defer cancel()
		for _, path := range paths {
			if err := e.images.Prefetch(ctx, path); err != nil {
				e.logger.Warn(ctx, "image prefetch failed", "path", path, "error", err)
			}
		}
	}()
}

func (e *Engine) appendLog(ctx context.Context, entityType models.EntityType, count int, success bool, message string) {
	err := e.log.Append(ctx, &models.SyncLogRecord{
		EntityType: entityType,
		Count:      count,
		Success:    success,
		Message:    message,
	})
	if err != nil {
		e.logger.Error(ctx, "failed to append sync log", "type", entityType, "error", err)
	}
}
