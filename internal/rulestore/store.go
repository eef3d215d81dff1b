package rulestore

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/anyulbade/stay-tax-engine/internal/model"
)

// loadTimeout bounds a single loader call. The call is detached from the
// requesting context because its result is shared with every waiter.
const loadTimeout = 10 * time.Second

// Loader reads the current rule records of a property from durable storage.
type Loader interface {
	LoadRules(ctx context.Context, propertyID string) ([]model.TaxRuleRecord, error)
	ListPropertyIDs(ctx context.Context) ([]string, error)
}

// Store caches one immutable snapshot per property. Readers receive a
// pointer to a complete snapshot; refreshes swap the pointer and never touch
// a snapshot already handed out.
type Store struct {
	loader Loader
	cache  *cache.Cache
	loads  singleflight.Group
}

func NewStore(loader Loader) *Store {
	return &Store{
		loader: loader,
		cache:  cache.New(cache.NoExpiration, 0),
	}
}

// Snapshot returns the cached snapshot for propertyID, loading it on first use.
func (s *Store) Snapshot(ctx context.Context, propertyID string) (*Snapshot, error) {
	if v, ok := s.cache.Get(propertyID); ok {
		return v.(*Snapshot), nil
	}
	return s.Refresh(ctx, propertyID)
}

// Refresh reloads propertyID from the loader and publishes the new snapshot.
// Concurrent refreshes of the same property share one load. A property with
// no stored rules gets an empty snapshot that is not cached, and any earlier
// snapshot for it is dropped.
func (s *Store) Refresh(ctx context.Context, propertyID string) (*Snapshot, error) {
	v, err, _ := s.loads.Do(propertyID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		records, err := s.loader.LoadRules(loadCtx, propertyID)
		if err != nil {
			return nil, fmt.Errorf("load rules for property %s: %w", propertyID, err)
		}
		if len(records) == 0 {
			s.cache.Delete(propertyID)
			return NewSnapshot(propertyID, nil), nil
		}
		return s.Replace(ctx, propertyID, records), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Replace publishes a snapshot built from records without consulting the loader.
func (s *Store) Replace(ctx context.Context, propertyID string, records []model.TaxRuleRecord) *Snapshot {
	snap := NewSnapshot(propertyID, records)

	logger := log.Ctx(ctx)
	for _, d := range snap.Defects {
		logger.Warn().
			Str("property_id", propertyID).
			Str("rule_id", d.RuleID).
			Str("reason", d.Reason).
			Msg("invalid rule definition")
	}

	if prev, ok := s.cache.Get(propertyID); ok && prev.(*Snapshot).Version == snap.Version {
		logger.Debug().Str("property_id", propertyID).Str("version", snap.Version).Msg("rule set unchanged")
	} else {
		logger.Info().
			Str("property_id", propertyID).
			Str("version", snap.Version).
			Int("rules", len(snap.Rules)).
			Int("defects", len(snap.Defects)).
			Msg("rule snapshot published")
	}

	s.cache.Set(propertyID, snap, cache.NoExpiration)
	return snap
}

// RefreshAll reloads every property known to the loader, at most
// concurrency at a time. Cached properties the loader no longer lists are
// evicted.
func (s *Store) RefreshAll(ctx context.Context, concurrency int) error {
	ids, err := s.loader.ListPropertyIDs(ctx)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}

	listed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
	}
	for id := range s.cache.Items() {
		if _, ok := listed[id]; !ok {
			s.cache.Delete(id)
			log.Ctx(ctx).Debug().Str("property_id", id).Msg("rule snapshot evicted")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			_, err := s.Refresh(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// Run refreshes all properties every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, concurrency int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx, concurrency); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Rule refresh failed")
			}
		}
	}
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}
