package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// RedisStore is a Store backed by Redis strings. Every write is followed by
// a message on the namespace's change channel so other processes sharing
// the same Redis can reload their copy.
type RedisStore struct {
	client    *redis.Client
	namespace string
	origin    string
}

// NewRedisStore wraps client. namespace is prepended to every key and to the
// change channel name (e.g. "nexttrip:").
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, origin: uuid.NewString()}
}

// Origin identifies this handle in published changes.
func (s *RedisStore) Origin() string { return s.origin }

func (s *RedisStore) channel() string { return s.namespace + "changes" }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("repo.RedisStore.Get: %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.RedisStore.Get: %w", err)
	}
	return v, nil
}

// Put sets the key and publishes the change in one MULTI/EXEC block.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	msg, err := json.Marshal(Change{Key: key, Origin: s.origin})
	if err != nil {
		return fmt.Errorf("repo.RedisStore.Put: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.namespace+key, value, 0)
		p.Publish(ctx, s.channel(), msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RedisStore.Put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		full := make([]string, len(keys))
		for i, k := range keys {
			full[i] = s.namespace + k
		}
		p.Del(ctx, full...)
		for _, k := range keys {
			msg, err := json.Marshal(Change{Key: k, Origin: s.origin})
			if err != nil {
				return err
			}
			p.Publish(ctx, s.channel(), msg)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RedisStore.Delete: %w", err)
	}
	return nil
}

// Watch subscribes to the change channel. The subscription is confirmed
// before Watch returns, so no change published afterwards is missed.
func (s *RedisStore) Watch(ctx context.Context) (<-chan Change, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("repo.RedisStore.Watch: subscribe: %w", err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
