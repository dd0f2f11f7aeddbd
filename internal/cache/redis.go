package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/nihongo-master/tts-cache/internal/artifact"
)

const keyPrefix = "tts:artifact:"

// Entry is an indexed artifact together with its hit count.
type Entry struct {
	artifact.Record
	Hits int64 `json:"hits"`
}

// Index records committed artifacts and cache hits in Redis. Records carry no
// TTL since artifacts are never evicted by the service.
type Index struct {
	client *redis.Client
}

func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

func recordKey(key string) string { return keyPrefix + key }
func hitsKey(key string) string   { return keyPrefix + key + ":hits" }

// RecordCommit stores rec. An existing record for the key is kept, matching
// the write-once artifact on disk.
func (i *Index) RecordCommit(ctx context.Context, rec artifact.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := i.client.SetNX(ctx, recordKey(rec.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("index set %s: %w", rec.Key, err)
	}
	return nil
}

func (i *Index) RecordHit(ctx context.Context, key string) error {
	if err := i.client.Incr(ctx, hitsKey(key)).Err(); err != nil {
		return fmt.Errorf("index incr %s: %w", key, err)
	}
	return nil
}

// Lookup returns the entry for key, or artifact.ErrNotFound.
func (i *Index) Lookup(ctx context.Context, key string) (*Entry, error) {
	vals, err := i.client.MGet(ctx, recordKey(key), hitsKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("index get %s: %w", key, err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, artifact.ErrNotFound
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	if hits, ok := vals[1].(string); ok {
		if e.Hits, err = strconv.ParseInt(hits, 10, 64); err != nil {
			return nil, fmt.Errorf("decode hits %s: %w", key, err)
		}
	}
	return &e, nil
}

// Ping reports whether Redis is reachable.
func (i *Index) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}
