package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the serialized contact collection.
const DefaultRedisKey = "augur:contacts"

type redisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedis creates a Store that keeps the whole collection as one JSON
// document under key.
func NewRedis(client redis.UniversalClient, key string) Store {
	if key == "" {
		key = DefaultRedisKey
	}
	return &redisStore{client: client, key: key}
}

func (r *redisStore) LoadAll(ctx context.Context) ([]Contact, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Contact{}, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}

	var contacts []Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	return contacts, nil
}

func (r *redisStore) ReplaceAll(ctx context.Context, contacts []Contact) error {
	if contacts == nil {
		contacts = []Contact{}
	}

	data, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}
