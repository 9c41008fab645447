package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "links:"

// CacheConfig configures a CachedClient.
type CacheConfig struct {
	// Dir holds the badger files. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	// TTL bounds how long a lookup result is served from the cache (default: 1 hour)
	TTL time.Duration
	// LookupTimeout bounds a shared upstream lookup (default: 30 seconds)
	LookupTimeout time.Duration
}

// CachedClient memoizes lookup results in badger and coalesces concurrent
// identical lookups. Only successful answers are cached.
type CachedClient struct {
	client        Client
	db            *badger.DB
	ttl           time.Duration
	lookupTimeout time.Duration
	flight        singleflight.Group
	logger        *slog.Logger
}

// NewCachedClient opens the cache store and wraps client.
func NewCachedClient(client Client, cfg CacheConfig, logger *slog.Logger) (*CachedClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 30 * time.Second
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache dir is required for a persistent cache")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open lookup cache: %w", err)
	}

	return &CachedClient{
		client:        client,
		db:            db,
		ttl:           cfg.TTL,
		lookupTimeout: cfg.LookupTimeout,
		logger:        logger,
	}, nil
}

// OutgoingLinks implements Client.
func (c *CachedClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	if links, ok := c.lookup(entity); ok {
		return links, nil
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting when its own ctx is done.
	ch := c.flight.DoChan(entity.String(), func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		links, err := c.client.OutgoingLinks(flightCtx, entity)
		if err != nil {
			return nil, err
		}
		if err := c.store(entity, links); err != nil {
			c.logger.Warn("failed to cache lookup result", "entity", entity, "error", err)
		}
		return links, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, classify(entity, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	v := res.Val

	// Callers sharing a flight must not share a backing array.
	links := v.([]types.Link)
	out := make([]types.Link, len(links))
	copy(out, links)
	return out, nil
}

func (c *CachedClient) lookup(entity types.Entity) ([]types.Link, bool) {
	var links []types.Link
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + entity.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &links)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("failed to read cached lookup", "entity", entity, "error", err)
		}
		return nil, false
	}
	if links == nil {
		links = []types.Link{}
	}
	return links, true
}

func (c *CachedClient) store(entity types.Entity, links []types.Link) error {
	data, err := msgpack.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(cacheKeyPrefix+entity.String()), data).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

// Ping implements Pinger.
func (c *CachedClient) Ping(ctx context.Context) error {
	return Ping(ctx, c.client)
}

// Close closes the cache store and the wrapped client.
func (c *CachedClient) Close() error {
	dbErr := c.db.Close()
	if err := c.client.Close(); err != nil {
		return err
	}
	return dbErr
}

// badgerLogger adapts slog.Logger to badger's Logger interface. Badger is
// chatty at info level, so info goes to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
