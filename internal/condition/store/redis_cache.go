package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
)

const snapshotKeyPrefix = "teamcondition:snapshot:"

// RedisSnapshotCache shares snapshots between service instances. Entries are
// JSON compressed with zstd and expire in redis after the cache ttl.
// Cell values come back through NormalizeRawValue, so time.Time cells are
// returned as RFC3339 strings.
type RedisSnapshotCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewRedisSnapshotCache(rdb *redis.Client, ttl time.Duration) (*RedisSnapshotCache, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisSnapshotCache{
		rdb:     rdb,
		ttl:     ttl,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close releases the zstd encoder and decoder.
func (c *RedisSnapshotCache) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

func snapshotKey(tenant string) string {
	return snapshotKeyPrefix + tenant
}

func (c *RedisSnapshotCache) encode(snap *records.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.encoder.EncodeAll(raw, nil), nil
}

func (c *RedisSnapshotCache) decode(data []byte) (*records.Snapshot, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var snap records.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	for _, row := range snap.Rows {
		for k, v := range row {
			row[k] = records.NormalizeRawValue(v)
		}
	}
	if snap.Rows == nil {
		snap.Rows = make([]records.Row, 0)
	}
	return &snap, nil
}

func (c *RedisSnapshotCache) Get(ctx context.Context, tenant string) (*records.Snapshot, bool, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(tenant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	snap, err := c.decode(data)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, snap *records.Snapshot) error {
	data, err := c.encode(snap)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, snapshotKey(snap.Tenant), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) Delete(ctx context.Context, tenant string) error {
	if err := c.rdb.Del(ctx, snapshotKey(tenant)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
