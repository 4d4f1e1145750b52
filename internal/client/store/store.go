// Package store is the client-side cache of every AssetFlow collection.
//
// Store is the only component that calls the Data API collection
// operations. Readers receive deep copies; all changes go through Store
// methods and are applied only after the server confirms them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownCollection = models.ErrUnknownCollection
	ErrIDMismatch        = errors.New("record id mismatch")
)

// Snapshot maps every collection to its records in display order.
type Snapshot map[models.CollectionName][]models.Record

type Store struct {
	api     api.DataAPI
	log     logging.Logger
	metrics *metrics

	mu       sync.RWMutex
	data     map[models.CollectionName]*arena
	inFlight int
	err      error
	version  uint64
}

// New returns a Store with every collection present and empty.
// Metrics are registered on reg unless it is nil.
func New(client api.DataAPI, logger logging.Logger, reg prometheus.Registerer) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{
		api:     client,
		log:     logger.With("component", "store"),
		metrics: newMetrics(reg),
		data:    make(map[models.CollectionName]*arena),
	}
	for _, name := range models.Collections() {
		s.data[name] = newArena(0)
		s.metrics.records.WithLabelValues(string(name)).Set(0)
	}
	return s
}

// RefreshAll fetches all collections concurrently and replaces the cache in
// a single step. A failed fetch degrades its collection to empty and is
// only logged. An error is returned when the refresh as a whole cannot
// complete: ctx ended before the merge, or a fetch panicked. The cache is
// left untouched in that case.
func (s *Store) RefreshAll(ctx context.Context) (Snapshot, error) {
	start := time.Now()

	s.mu.Lock()
	s.inFlight++
	s.err = nil
	s.version++
	s.mu.Unlock()

	names := models.Collections()
	results := make([][]models.Record, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("fetch %s: panic: %v", name, r)
				}
			}()

			recs, ferr := s.api.List(gctx, name)
			if ferr != nil {
				s.log.Warn(ctx, "collection fetch failed", "collection", string(name), "error", ferr)
				s.metrics.fetchFailures.WithLabelValues(string(name)).Inc()
				recs = nil
			}
			results[i] = recs
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	s.metrics.refreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.mu.Lock()
		s.inFlight--
		s.err = err
		s.version++
		s.mu.Unlock()

		s.metrics.refreshTotal.WithLabelValues(outcomeFailed).Inc()
		return nil, fmt.Errorf("refresh all: %w", err)
	}

	merged := make(map[models.CollectionName]*arena, len(names))
	for i, name := range names {
		a, skipped := buildArena(results[i])
		if skipped > 0 {
			s.log.Warn(ctx, "records without a unique id dropped", "collection", string(name), "count", skipped)
		}
		merged[name] = a
	}

	s.mu.Lock()
	s.data = merged
	s.inFlight--
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	for name, a := range merged {
		s.metrics.records.WithLabelValues(string(name)).Set(float64(a.len()))
	}
	s.metrics.refreshTotal.WithLabelValues(outcomeOK).Inc()
	s.log.Debug(ctx, "refresh finished", "took", time.Since(start))

	return snap, nil
}

// Create stores the server-returned record at the head of the collection.
func (s *Store) Create(ctx context.Context, name models.CollectionName, payload models.Record) (rec models.Record, err error) {
	defer func() { s.metrics.mutation("create", err) }()

	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	rec, err = s.api.Create(ctx, name, payload)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	id, ok := rec.ID()
	if !ok {
		return nil, fmt.Errorf("create %s: %w", name, models.ErrMissingID)
	}

	s.mu.Lock()
	a := s.data[name]
	a.prepend(id, rec.Clone())
	s.version++
	n := a.len()
	s.mu.Unlock()

	s.metrics.records.WithLabelValues(string(name)).Set(float64(n))
	return rec, nil
}

// Update replaces the cached record with the given id by the
// server-returned one, keeping its position. If no such record is cached
// the collection is left as is. A returned record with a different id is
// rejected and not cached.
func (s *Store) Update(ctx context.Context, name models.CollectionName, id string, payload models.Record) (rec models.Record, err error) {
	defer func() { s.metrics.mutation("update", err) }()

	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	key, ok := models.NormalizeID(id)
	if !ok {
		return nil, fmt.Errorf("update %s: %w", name, models.ErrMissingID)
	}
	rec, err = s.api.Update(ctx, name, key, payload)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", name, key, err)
	}
	got, ok := rec.ID()
	if !ok {
		return nil, fmt.Errorf("update %s/%s: %w", name, key, models.ErrMissingID)
	}
	if got != key {
		return nil, fmt.Errorf("update %s/%s: %w: server returned %s", name, key, ErrIDMismatch, got)
	}

	s.mu.Lock()
	if s.data[name].replace(key, rec.Clone()) {
		s.version++
	}
	s.mu.Unlock()

	return rec, nil
}

// Remove deletes the record on the server, then drops it from the cache.
func (s *Store) Remove(ctx context.Context, name models.CollectionName, id string) (err error) {
	defer func() { s.metrics.mutation("remove", err) }()

	if !name.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	if err = s.api.Delete(ctx, name, id); err != nil {
		return fmt.Errorf("remove %s/%s: %w", name, id, err)
	}

	s.mu.Lock()
	a := s.data[name]
	if a.remove(id) {
		s.version++
	}
	n := a.len()
	s.mu.Unlock()

	s.metrics.records.WithLabelValues(string(name)).Set(float64(n))
	return nil
}

// SetCollection overwrites a collection locally. No server call is made.
func (s *Store) SetCollection(name models.CollectionName, records []models.Record) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	a, skipped := buildArena(records)
	if skipped > 0 {
		s.log.Warn(context.Background(), "records without a unique id dropped", "collection", string(name), "count", skipped)
	}

	s.mu.Lock()
	s.data[name] = a
	s.version++
	s.mu.Unlock()

	s.metrics.records.WithLabelValues(string(name)).Set(float64(a.len()))
	return nil
}

// MarkAllNotificationsRead asks the server to mark every notification read
// and then reloads the notifications collection. It returns the server's
// confirmation message.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) (msg string, err error) {
	defer func() { s.metrics.mutation("mark_all_read", err) }()

	msg, err = s.api.MarkAllNotificationsRead(ctx)
	if err != nil {
		return "", fmt.Errorf("mark all read: %w", err)
	}
	recs, err := s.api.List(ctx, models.Notifications)
	if err != nil {
		return msg, fmt.Errorf("reload notifications: %w", err)
	}
	return msg, s.SetCollection(models.Notifications, recs)
}

// Collection returns copies of the records of name in display order.
// Unknown names yield an empty slice.
func (s *Store) Collection(name models.CollectionName) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[name]
	if !ok {
		return []models.Record{}
	}
	return a.records()
}

func (s *Store) Get(name models.CollectionName, id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[name]
	if !ok {
		return nil, false
	}
	r, ok := a.get(id)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (s *Store) Len(name models.CollectionName) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.data[name]; ok {
		return a.len()
	}
	return 0
}

// Snapshot returns copies of every collection. All nine keys are present.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.data))
	for name, a := range s.data {
		snap[name] = a.records()
	}
	return snap
}

// Loading reports whether a bulk refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the error of the last failed bulk refresh, cleared when the
// next one starts.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Version increases on every state change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
