package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// cacheKey identifies one version of a file on disk.
type cacheKey struct {
	Path    string
	ModTime int64
	Size    int64
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s@%d:%d", k.Path, k.ModTime, k.Size)
}

type LoadFunc func(ctx context.Context, path string) (*Dataset, error)

// DatasetCache keeps parsed snapshots keyed by path and modification time, so
// repeated refresh ticks do not re-read an unchanged file.
type DatasetCache struct {
	entries *lru.Cache[cacheKey, *Dataset]
	group   singleflight.Group
	load    LoadFunc
	logger  *slog.Logger

	mu     sync.Mutex
	latest map[string]cacheKey

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Loads   int64 `json:"loads"`
	Entries int   `json:"entries"`
}

func NewDatasetCache(size int, logger *slog.Logger) (*DatasetCache, error) {
	return newDatasetCache(size, logger, LoadDataset)
}

func newDatasetCache(size int, logger *slog.Logger, load LoadFunc) (*DatasetCache, error) {
	entries, err := lru.New[cacheKey, *Dataset](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetCache{
		entries: entries,
		load:    load,
		logger:  logger,
		latest:  make(map[string]cacheKey),
	}, nil
}

// Get returns the snapshot for the current version of path, loading it when
// the file changed since the last call.
func (c *DatasetCache) Get(ctx context.Context, path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	key := cacheKey{Path: abs, ModTime: info.ModTime().UnixNano(), Size: info.Size()}
	if ds, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return ds, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if ds, ok := c.entries.Get(key); ok {
			return ds, nil
		}

		start := time.Now()
		ds, err := c.load(ctx, abs)
		if err != nil {
			return nil, err
		}
		c.loads.Add(1)
		c.store(key, ds)

		duration := time.Since(start)
		c.logger.Info("dataset loaded",
			"path", abs,
			"records", len(ds.Records),
			"duration", duration,
			"rate", fmt.Sprintf("%.0f records/sec", float64(len(ds.Records))/duration.Seconds()))
		return ds, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Dataset), nil
}

func (c *DatasetCache) store(key cacheKey, ds *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.latest[key.Path]; ok && prev != key {
		c.entries.Remove(prev)
		c.logger.Debug("evicted stale dataset", "path", key.Path)
	}
	c.latest[key.Path] = key
	c.entries.Add(key, ds)
}

func (c *DatasetCache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Loads:   c.loads.Load(),
		Entries: c.entries.Len(),
	}
}
