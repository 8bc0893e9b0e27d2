package redisad

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultOffsetKey = "propbot:telegram:offset"

// OffsetStore keeps the long-poll cursor so a restarted bot does not replay updates.
type OffsetStore struct {
	c   *redis.Client
	key string
}

func New(addr, pass string, db int) *OffsetStore {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), DefaultOffsetKey)
}

func NewWithClient(c *redis.Client, key string) *OffsetStore {
	if key == "" {
		key = DefaultOffsetKey
	}
	return &OffsetStore{c: c, key: key}
}

func (s *OffsetStore) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

// LoadOffset returns 0 when nothing was stored yet.
func (s *OffsetStore) LoadOffset(ctx context.Context) (int64, error) {
	v, err := s.c.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load offset: %w", err)
	}
	off, err := strconv.ParseInt(v, 10, 64)
	if err != nil || off < 0 {
		return 0, fmt.Errorf("load offset: invalid value %q", v)
	}
	return off, nil
}

// SaveOffset only ever moves the cursor forward.
func (s *OffsetStore) SaveOffset(ctx context.Context, offset int64) error {
	err := s.c.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, s.key).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil && cur >= offset {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.key, offset, 0)
			return nil
		})
		return err
	}, s.key)
	if err != nil {
		return fmt.Errorf("save offset: %w", err)
	}
	return nil
}

func (s *OffsetStore) Close() error { return s.c.Close() }
