package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hupe1980/trieidx/blobstore"
	"github.com/hupe1980/trieidx/internal/compress"
	"github.com/hupe1980/trieidx/internal/lru"
	"golang.org/x/sync/errgroup"
)

// Tier names reported in Entry.Tier.
const (
	TierHot      = "hot"
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// StoreStatus is the outcome of Store.
type StoreStatus int

const (
	// StatusFailed means nothing was written.
	StatusFailed StoreStatus = iota
	// StatusStored means the entry was written to the primary tier.
	StatusStored
	// StatusStoredFallback means the entry was written to the fallback tier.
	StatusStoredFallback
	// StatusDegraded means the entry did not fit and a marker was written.
	StatusDegraded
)

func (s StoreStatus) String() string {
	switch s {
	case StatusStored:
		return "stored"
	case StatusStoredFallback:
		return "stored-fallback"
	case StatusDegraded:
		return "degraded"
	default:
		return "failed"
	}
}

// Manager stores compressed payloads in tiered blob stores.
// It is safe for concurrent use.
type Manager struct {
	primary  blobstore.BlobStore
	fallback blobstore.BlobStore
	hot      *lru.Cache
	opts     options
	logger   *slog.Logger
}

// NewManager creates a Manager. Either tier may be nil.
func NewManager(primary, fallback blobstore.BlobStore, optFns ...Option) *Manager {
	o := applyOptions(optFns)

	m := &Manager{
		primary:  primary,
		fallback: fallback,
		opts:     o,
		logger:   o.logger.With("namespace", o.namespace),
	}
	if o.hotCapacity > 0 {
		m.hot = lru.New(o.hotCapacity)
	}
	return m
}

// Namespace returns the key namespace.
func (m *Manager) Namespace() string { return m.opts.namespace }

func (m *Manager) prefix() string { return m.opts.namespace + "/" }

func (m *Manager) name(key string) string { return m.prefix() + key }

// Store compresses payload and writes it under key. It never fails hard;
// the status reports where the entry ended up.
func (m *Manager) Store(ctx context.Context, key string, payload []byte) StoreStatus {
	if key == "" {
		m.logger.Warn("cache store skipped", "reason", "empty key")
		return StatusFailed
	}
	name := m.name(key)

	frame, err := compress.Compress(payload, m.opts.algorithm)
	if err != nil {
		m.logger.Warn("cache compress failed", "key", key, "error", err)
		return StatusFailed
	}
	env := encodeEnvelope(frame, m.opts.now(), false)

	if m.primary != nil {
		err := m.primary.Put(ctx, name, env)
		if err == nil {
			m.hotSet(name, env)
			m.logger.Debug("cache stored", "key", key, "tier", TierPrimary, "bytes", len(env), "raw", len(payload))
			return StatusStored
		}
		m.logger.Warn("cache primary write failed", "key", key, "error", err)
		// An older primary entry would shadow the fallback on Retrieve.
		if derr := m.primary.Delete(ctx, name); derr != nil && !errors.Is(derr, blobstore.ErrNotFound) {
			m.logger.Warn("cache stale primary entry not removed", "key", key, "error", derr)
		}
		m.hotDelete(name)
	}

	if m.fallback == nil {
		return StatusFailed
	}

	status := m.storeFallback(ctx, key, name, m.wrap(env))
	switch status {
	case StatusStoredFallback:
		m.hotSet(name, env)
	case StatusDegraded:
		m.hotDelete(name)
	}
	return status
}

func (m *Manager) storeFallback(ctx context.Context, key, name string, data []byte) StoreStatus {
	err := m.fallback.Put(ctx, name, data)
	if err == nil {
		m.logger.Debug("cache stored", "key", key, "tier", TierFallback, "bytes", len(data))
		return StatusStoredFallback
	}
	if !errors.Is(err, blobstore.ErrQuotaExceeded) {
		m.logger.Warn("cache fallback write failed", "key", key, "error", err)
		return StatusFailed
	}

	victims, lerr := m.fallback.List(ctx, m.prefix())
	if lerr != nil {
		m.logger.Warn("cache eviction listing failed", "key", key, "error", lerr)
	}

	evicted := 0
	for _, victim := range victims {
		if victim == name {
			continue
		}
		if derr := m.fallback.Delete(ctx, victim); derr != nil {
			m.logger.Warn("cache eviction failed", "victim", victim, "error", derr)
			continue
		}
		m.hotDelete(victim)
		evicted++

		err = m.fallback.Put(ctx, name, data)
		if err == nil {
			m.logger.Info("cache stored after eviction", "key", key, "evicted", evicted, "bytes", len(data))
			return StatusStoredFallback
		}
		if !errors.Is(err, blobstore.ErrQuotaExceeded) {
			m.logger.Warn("cache fallback write failed", "key", key, "error", err)
			return StatusFailed
		}
	}

	marker := m.wrap(encodeEnvelope(nil, m.opts.now(), true))
	if merr := m.fallback.Put(ctx, name, marker); merr != nil {
		m.logger.Warn("cache marker write failed", "key", key, "error", merr)
		return StatusFailed
	}
	m.logger.Warn("cache entry too large, stored marker", "key", key, "bytes", len(data), "evicted", evicted)
	return StatusDegraded
}

// Retrieve returns the entry stored under key. Missing, corrupted and marker
// entries report false; a marker is returned with Entry.Marker set.
func (m *Manager) Retrieve(ctx context.Context, key string) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}
	name := m.name(key)

	if env, ok := m.hotGet(name); ok {
		e, err := m.decode(key, env)
		if err == nil {
			e.Tier = TierHot
			return e, true
		}
		m.hotDelete(name)
	}

	var marker Entry
	for _, t := range []struct {
		tier  string
		store blobstore.BlobStore
		text  bool
	}{
		{TierPrimary, m.primary, false},
		{TierFallback, m.fallback, m.opts.textFallback},
	} {
		if t.store == nil {
			continue
		}
		data, err := t.store.Get(ctx, name)
		if err != nil {
			if !errors.Is(err, blobstore.ErrNotFound) {
				m.logger.Warn("cache read failed", "key", key, "tier", t.tier, "error", err)
			}
			continue
		}

		env := data
		if t.text {
			env, err = base64.StdEncoding.DecodeString(string(data))
			if err != nil {
				m.logger.Warn("cache entry corrupt", "key", key, "tier", t.tier, "error", err)
				continue
			}
		}

		e, err := m.decode(key, env)
		switch {
		case err == nil:
			e.Tier = t.tier
			m.hotSet(name, env)
			return e, true
		case errors.Is(err, errMarker):
			e.Tier = t.tier
			marker = e
			m.logger.Debug("cache marker hit", "key", key, "tier", t.tier)
		default:
			m.logger.Warn("cache entry corrupt", "key", key, "tier", t.tier, "error", err)
		}
	}

	return marker, false
}

func (m *Manager) decode(key string, env []byte) (Entry, error) {
	frame, storedAt, isMarker, err := decodeEnvelope(env)
	if err != nil {
		return Entry{}, err
	}
	if isMarker {
		return Entry{Key: key, StoredAt: storedAt, Marker: true}, errMarker
	}
	payload, err := compress.Decompress(frame)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Key:        key,
		Payload:    payload,
		Compressed: len(frame),
		StoredAt:   storedAt,
	}, nil
}

func (m *Manager) wrap(env []byte) []byte {
	if !m.opts.textFallback {
		return env
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(env)))
	base64.StdEncoding.Encode(out, env)
	return out
}

// Remove deletes key from every tier.
func (m *Manager) Remove(ctx context.Context, key string) error {
	name := m.name(key)
	m.hotDelete(name)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.stores() {
		g.Go(func() error {
			if err := s.Delete(gctx, name); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
				return fmt.Errorf("cache: remove %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ListKeys returns the sorted keys present in any tier.
func (m *Manager) ListKeys(ctx context.Context) ([]string, error) {
	stores := m.stores()
	lists := make([][]string, len(stores))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range stores {
		g.Go(func() error {
			names, err := s.List(gctx, m.prefix())
			if err != nil {
				return fmt.Errorf("cache: list: %w", err)
			}
			lists[i] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var keys []string
	for _, names := range lists {
		for _, n := range names {
			keys = append(keys, strings.TrimPrefix(n, m.prefix()))
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Clear removes every key of the namespace.
func (m *Manager) Clear(ctx context.Context) error {
	keys, err := m.ListKeys(ctx)
	if err != nil {
		return err
	}

	if m.hot != nil {
		m.hot.Invalidate(func(name string) bool { return strings.HasPrefix(name, m.prefix()) })
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, key := range keys {
		g.Go(func() error { return m.Remove(gctx, key) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.logger.Info("cache cleared", "keys", len(keys))
	return nil
}

// HotStats returns the hit and miss counters of the hot tier.
func (m *Manager) HotStats() (hits, misses int64) {
	if m.hot == nil {
		return 0, 0
	}
	return m.hot.Stats()
}

func (m *Manager) stores() []blobstore.BlobStore {
	var out []blobstore.BlobStore
	if m.primary != nil {
		out = append(out, m.primary)
	}
	if m.fallback != nil {
		out = append(out, m.fallback)
	}
	return out
}

func (m *Manager) hotGet(name string) ([]byte, bool) {
	if m.hot == nil {
		return nil, false
	}
	return m.hot.Get(name)
}

func (m *Manager) hotSet(name string, env []byte) {
	if m.hot != nil {
		m.hot.Set(name, env)
	}
}

func (m *Manager) hotDelete(name string) {
	if m.hot != nil {
		m.hot.Delete(name)
	}
}
