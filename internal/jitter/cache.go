// Package jitter keeps per-device random factors stable across generations.
package jitter

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	documentVersion = 1
	keyPrefix       = "jitter/"

	// slack absorbs float rounding at the band edges.
	slack = 1e-9
)

// MaxDeviation is the widest distance a factor may sit from 1. Stored
// factors outside 1 ± MaxDeviation are treated as corrupt and redrawn.
const MaxDeviation = 0.06

// Persistence is the storage collaborator. Missing keys report ok=false.
type Persistence interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

type document struct {
	Version int                `json:"version"`
	Factors map[string]float64 `json:"factors"`
}

// Cache maps (deviceId, field) to a jitter factor. Reads and writes are
// served from memory; persistence happens on Flush.
type Cache struct {
	store Persistence
	log   zerolog.Logger

	mu      sync.Mutex
	devices map[string]map[string]float64
	dirty   map[string]struct{}

	group singleflight.Group
}

// New creates a cache over store. A nil store keeps everything in memory.
func New(store Persistence, log zerolog.Logger) *Cache {
	return &Cache{
		store:   store,
		log:     log,
		devices: make(map[string]map[string]float64),
		dirty:   make(map[string]struct{}),
	}
}

// Get returns the cached factor, loading the device from persistence on first touch.
func (c *Cache) Get(ctx context.Context, deviceID, field string) (float64, bool) {
	c.ensure(ctx, deviceID)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.devices[deviceID][field]
	return v, ok
}

// Put stores a factor. Invalid factors are ignored.
func (c *Cache) Put(ctx context.Context, deviceID, field string, factor float64) {
	if !valid(factor) {
		return
	}
	c.ensure(ctx, deviceID)
	c.mu.Lock()
	c.devices[deviceID][field] = factor
	c.dirty[deviceID] = struct{}{}
	c.mu.Unlock()
}

// GetOrCreate returns the cached factor or stores the one produced by gen.
// Concurrent first-time callers for the same key share a single gen call.
func (c *Cache) GetOrCreate(ctx context.Context, deviceID, field string, gen func() float64) float64 {
	if v, ok := c.Get(ctx, deviceID, field); ok {
		return v
	}
	v, _, _ := c.group.Do(deviceID+"\x00"+field, func() (any, error) {
		if v, ok := c.Get(ctx, deviceID, field); ok {
			return v, nil
		}
		f := gen()
		c.Put(ctx, deviceID, field, f)
		return f, nil
	})
	return v.(float64)
}

// Reset removes every factor stored for a device.
func (c *Cache) Reset(ctx context.Context, deviceID string) {
	c.mu.Lock()
	c.devices[deviceID] = make(map[string]float64)
	c.dirty[deviceID] = struct{}{}
	c.mu.Unlock()
	c.log.Debug().Str("device_id", deviceID).Msg("jitter reset")
}

// Snapshot copies the factors currently held for a device.
func (c *Cache) Snapshot(ctx context.Context, deviceID string) map[string]float64 {
	c.ensure(ctx, deviceID)
	c.mu.Lock()
	defer c.mu.Unlock()
	factors := c.devices[deviceID]
	out := make(map[string]float64, len(factors))
	for k, v := range factors {
		out[k] = v
	}
	return out
}

// Flush writes every dirty device to persistence. Save failures are logged
// and the device stays dirty for the next flush.
func (c *Cache) Flush(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	pending := make(map[string][]byte, len(c.dirty))
	for id := range c.dirty {
		data, err := json.Marshal(document{Version: documentVersion, Factors: c.devices[id]})
		if err != nil {
			continue
		}
		pending[id] = data
	}
	c.dirty = make(map[string]struct{})
	c.mu.Unlock()

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := c.store.Save(ctx, keyPrefix+id, pending[id]); err != nil {
			c.log.Debug().Err(err).Str("device_id", id).Msg("jitter save failed")
			c.mu.Lock()
			c.dirty[id] = struct{}{}
			c.mu.Unlock()
		}
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			c.Flush(ctx)
		}
	}
}

// Close flushes pending writes. The cache stays usable afterwards.
func (c *Cache) Close(ctx context.Context) error {
	c.Flush(ctx)
	return ctx.Err()
}

// ensure loads a device's factors from persistence the first time it is seen.
func (c *Cache) ensure(ctx context.Context, deviceID string) {
	c.mu.Lock()
	_, ok := c.devices[deviceID]
	c.mu.Unlock()
	if ok {
		return
	}

	c.group.Do("load\x00"+deviceID, func() (any, error) {
		c.mu.Lock()
		_, ok := c.devices[deviceID]
		c.mu.Unlock()
		if ok {
			return nil, nil
		}

		loaded := c.load(ctx, deviceID)
		c.mu.Lock()
		if _, ok := c.devices[deviceID]; !ok {
			c.devices[deviceID] = loaded
		}
		c.mu.Unlock()
		return nil, nil
	})
}

func (c *Cache) load(ctx context.Context, deviceID string) map[string]float64 {
	factors := make(map[string]float64)
	if c.store == nil {
		return factors
	}
	data, ok, err := c.store.Load(ctx, keyPrefix+deviceID)
	if err != nil {
		c.log.Debug().Err(err).Str("device_id", deviceID).Msg("jitter load failed")
		return factors
	}
	if !ok || len(data) == 0 {
		return factors
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Version != documentVersion {
		c.log.Debug().Str("device_id", deviceID).Msg("discarding unreadable jitter document")
		return factors
	}
	for field, v := range doc.Factors {
		if valid(v) {
			factors[field] = v
		}
	}
	return factors
}

func valid(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f-1) <= MaxDeviation+slack
}
