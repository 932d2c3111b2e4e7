package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vendora/storefront/internal/log"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/otel"
)

// sessionTTL bounds how long an abandoned session lingers; every write
// refreshes it.
const sessionTTL = 24 * time.Hour

type RedisStore struct {
	cache *redis.Client
}

func NewRedisStore(cache *redis.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

func (s *RedisStore) storageKey(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}

func (s *RedisStore) Get(c context.Context, sessionID string, key string) ([]byte, error) {
	c, span := otel.Tracer.Start(c, "RedisStore Get")
	defer span.End()

	storageKey := s.storageKey(sessionID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Get").
		Str(log.KeyCacheKey, storageKey).
		Logger()

	value, err := s.cache.Get(c, storageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		err = fmt.Errorf("failed getting session key=%s with error=%w", storageKey, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return value, nil
}

func (s *RedisStore) Set(c context.Context, sessionID string, key string, value []byte) error {
	c, span := otel.Tracer.Start(c, "RedisStore Set")
	defer span.End()

	storageKey := s.storageKey(sessionID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Set").
		Str(log.KeyCacheKey, storageKey).
		Logger()

	err := s.cache.Set(c, storageKey, value, sessionTTL).Err()
	if err != nil {
		err = fmt.Errorf("failed setting session key=%s with error=%w", storageKey, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *RedisStore) Delete(c context.Context, sessionID string, key string) error {
	c, span := otel.Tracer.Start(c, "RedisStore Delete")
	defer span.End()

	storageKey := s.storageKey(sessionID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisStore Delete").
		Str(log.KeyCacheKey, storageKey).
		Logger()

	err := s.cache.Del(c, storageKey).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting session key=%s with error=%w", storageKey, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
