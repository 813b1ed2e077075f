package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in one hash and publishes changes on a
// channel per collection.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	collection, key, err := Split(path)
	if err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, s.hashKey(collection), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis hget %s: %w", path, err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	values, err := s.client.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", collection, err)
	}
	docs := make(map[string][]byte, len(values))
	for k, v := range values {
		docs[k] = []byte(v)
	}
	return docs, nil
}

// ListWhere filters the collection hash client side; Redis keeps no index
// on document fields.
func (s *RedisStore) ListWhere(ctx context.Context, collection, field, value string) (map[string][]byte, error) {
	if err := validField(field); err != nil {
		return nil, err
	}
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	for k, data := range docs {
		if !fieldEquals(data, field, value) {
			delete(docs, k)
		}
	}
	return docs, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value []byte) error {
	collection, key, err := Split(path)
	if err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("docstore: value for %s is not valid JSON", path)
	}
	change, err := json.Marshal(Change{Collection: collection, Key: key, Op: OpSet})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hashKey(collection), key, value)
		pipe.Publish(ctx, s.channel(collection), change)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	collection, key, err := Split(path)
	if err != nil {
		return err
	}
	change, err := json.Marshal(Change{Collection: collection, Key: key, Op: OpRemove})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.hashKey(collection), key)
		pipe.Publish(ctx, s.channel(collection), change)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, collections ...string) (<-chan Change, error) {
	if len(collections) == 0 {
		return nil, fmt.Errorf("%w: no collections to subscribe", ErrInvalidPath)
	}
	channels := make([]string, 0, len(collections))
	for _, c := range collections {
		if err := validCollection(c); err != nil {
			return nil, err
		}
		channels = append(channels, s.channel(c))
	}

	pubsub := s.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) hashKey(collection string) string {
	return s.prefix + "doc:" + collection
}

func (s *RedisStore) channel(collection string) string {
	return s.prefix + "changes:" + collection
}

var _ Store = (*RedisStore)(nil)
