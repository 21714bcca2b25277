package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// ErrCacheMiss is returned by a Store that holds no value for a key.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key/value backend of CachedFetcher.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore connects to Redis and pings the server.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[INFO] candle cache connected to redis %s (db=%d)", addr, db)
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error { return s.client.Close() }

// CachedFetcher is a read-through cache in front of another Fetcher. Cache
// failures are logged and fall back to the wrapped fetcher. Requests that
// reach a trading session which has not closed yet bypass the cache, since
// the last candle is still forming.
type CachedFetcher struct {
	Inner Fetcher
	Store Store
	TTL   time.Duration

	now func() time.Time
}

// NewCachedFetcher wraps inner with store.
func NewCachedFetcher(inner Fetcher, store Store, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &CachedFetcher{Inner: inner, Store: store, TTL: ttl, now: time.Now}
}

func (c *CachedFetcher) Name() string { return c.Inner.Name() + "+cache" }

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, inst model.Instrument, from, to time.Time) ([]model.OHLCV, error) {
	if c.sessionOpen(to) {
		return c.Inner.FetchDailyBars(ctx, inst, from, to)
	}
	key := cacheKey(c.Inner.Name(), inst, from, to)

	raw, err := c.Store.Get(ctx, key)
	switch {
	case err == nil:
		var bars []model.OHLCV
		err = json.Unmarshal(raw, &bars)
		if err == nil {
			return bars, nil
		}
		log.Printf("[WARN] cache decode %s: %v", key, err)
	case !errors.Is(err, ErrCacheMiss):
		log.Printf("[WARN] cache get %s: %v", key, err)
	}

	bars, err := c.Inner.FetchDailyBars(ctx, inst, from, to)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(bars); err == nil {
		if err := c.Store.Set(ctx, key, raw, c.TTL); err != nil {
			log.Printf("[WARN] cache set %s: %v", key, err)
		}
	}
	return bars, nil
}

// sessionOpen reports whether a request ending at to covers today's session
// before its close.
func (c *CachedFetcher) sessionOpen(to time.Time) bool {
	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	if markethours.Date(to).Before(markethours.Date(now)) || !markethours.IsTradingDay(now) {
		return false
	}
	return now.Before(markethours.SessionClose(now))
}

func cacheKey(source string, inst model.Instrument, from, to time.Time) string {
	id := inst.InstrumentKey
	if id == "" {
		id = inst.Symbol
	}
	return fmt.Sprintf("candles:%s:%s:%s:%s", source, id, from.Format("20060102"), to.Format("20060102"))
}
