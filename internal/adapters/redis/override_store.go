package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// OverrideStore keeps the serialized override record for each client key.
type OverrideStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewOverrideStore creates an override store whose records expire after ttl.
func NewOverrideStore(client redis.UniversalClient, ttl time.Duration) *OverrideStore {
	return &OverrideStore{client: client, prefix: "override:", ttl: ttl}
}

func (s *OverrideStore) Load(ctx context.Context, key string) (domainauth.Record, error) {
	if key == "" {
		return domainauth.Record{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Record{}, ErrNotFound
		}
		return domainauth.Record{}, fmt.Errorf("redis get: %w", err)
	}

	return domainauth.DecodeRecord(data)
}

func (s *OverrideStore) Store(ctx context.Context, key string, rec domainauth.Record) error {
	if key == "" {
		return errors.New("override key cannot be empty")
	}

	data, err := domainauth.EncodeRecord(rec)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.prefix+key, data, s.ttl).Err()
}

func (s *OverrideStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}

var _ ports.OverrideStore = (*OverrideStore)(nil)
