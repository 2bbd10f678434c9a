package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one hash per organization so every instance of the service
// shares the same de-duplication state.
type Redis struct {
	client *redis.Client
}

func OpenRedis(addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required for the redis ledger")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedis(client), nil
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func hashKey(orgID uint) string {
	return fmt.Sprintf("ledger:org:%d", orgID)
}

func (r *Redis) Contains(ctx context.Context, orgID uint, phone string) (bool, error) {
	k := key(phone)
	if k == "" {
		return false, nil
	}
	return r.client.HExists(ctx, hashKey(orgID), k).Result()
}

func (r *Redis) Append(ctx context.Context, orgID uint, entry Entry) error {
	entry.Phone = key(entry.Phone)
	if entry.Phone == "" {
		return fmt.Errorf("ledger entry without phone number")
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, hashKey(orgID), entry.Phone, data).Err()
}

func (r *Redis) Entries(ctx context.Context, orgID uint) ([]Entry, error) {
	values, err := r.client.HGetAll(ctx, hashKey(orgID)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
