// Package cache keeps rendered conversions in redis, keyed by a digest of the
// input files and conversion options.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Entry is a cached conversion.
type Entry struct {
	CatalogID string `json:"catalog_id"`
	Format    string `json:"format"`
	Output    []byte `json:"output"`
}

func New(c Config) (*Cache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("cache: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("cache: zstd decoder: %w", err)
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache{
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    ttl,
		enc:    enc,
		dec:    dec,
	}, nil
}

// Key digests the given parts. Each part is length-prefixed so that
// different splits of the same bytes do not collide.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		_ = binary.Write(h, binary.BigEndian, uint64(len(p)))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry stored under key. A missing key is reported by ok == false.
func (c *Cache) Get(ctx context.Context, key string) (e *Entry, ok bool, err error) {
	b, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	raw, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, false, fmt.Errorf("cache: decompress: %w", err)
	}

	e = new(Entry)
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, false, fmt.Errorf("cache: unmarshal: %w", err)
	}

	return e, true, nil
}

// Put stores e under key until the TTL expires.
func (c *Cache) Put(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	if err := c.redis.Set(ctx, c.redisKey(key), c.enc.EncodeAll(raw, nil), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

func (c *Cache) redisKey(key string) string {
	return fmt.Sprintf("%s:conversion:%s", c.prefix, key)
}
