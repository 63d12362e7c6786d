package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

// maxTxRetries bounds the optimistic WATCH loop in UpdateHash. Contention on
// a single room is two members racing for one slot, so conflicts are rare.
const maxTxRetries = 16

// Store implements storage.Store on a redis client. TTL handling is native:
// expired keys simply stop existing.
type Store struct {
	rdb *goredis.Client
}

func NewStore(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (s *Store) GetHash(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, storage.ErrKeyNotFound
	}
	return fields, nil
}

func (s *Store) UpdateHash(ctx context.Context, key string, fn func(fields map[string]string) (map[string]string, error)) error {
	txf := func(tx *goredis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return storage.ErrKeyNotFound
		}

		updated, err := fn(fields)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, updated)
			return nil
		})
		return err
	}

	// WATCH aborts the MULTI when the key changed between read and write;
	// retry with fresh state until it goes through.
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("update hash %s: too many transaction conflicts", key)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// redis reports -2 for a missing key and -1 for a key without expiry;
	// go-redis passes both through as raw negative durations.
	if ttl == -2 {
		return 0, false, nil
	}
	if ttl < 0 {
		return -1, true, nil
	}
	return ttl, true, nil
}

func (s *Store) AppendList(ctx context.Context, key string, item []byte) error {
	return s.rdb.RPush(ctx, key, item).Err()
}

func (s *Store) ReadList(ctx context.Context, key string) ([][]byte, error) {
	items, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}
