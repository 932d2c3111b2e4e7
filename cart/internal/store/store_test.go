package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/internal/session"
)

func setupRedis(t *testing.T, c context.Context) (*redis.Client, *testRedis.RedisContainer) {
	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}

	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	redisClient := redis.NewClient(redisOpt)
	if err = redisClient.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}
	return redisClient, redisContainer
}

func TestCartRoundTripThroughRedis(t *testing.T) {
	c := context.Background()
	redisClient, redisContainer := setupRedis(t, c)
	defer func() {
		redisClient.Close()
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	cartStore := NewCartStore(session.NewRedisStore(redisClient))
	sessionID := uuid.NewString()

	ct := cart.Cart{}
	ct.Add(cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "ceramic mug",
		Price:       decimal.NewFromInt(2000),
		ProductType: cart.ProductTypePhysical,
		Quantity:    3,
	})
	require.NoError(t, cartStore.Save(c, sessionID, ct))

	loaded, err := cartStore.Load(c, sessionID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, ct.Items[0].ID, loaded.Items[0].ID)
	assert.True(t, loaded.Total().Equal(decimal.NewFromInt(6000)))

	require.NoError(t, cartStore.Delete(c, sessionID))
	loaded, err = cartStore.Load(c, sessionID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestLoadMissingCartReturnsEmpty(t *testing.T) {
	c := context.Background()
	redisClient, redisContainer := setupRedis(t, c)
	defer func() {
		redisClient.Close()
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	cartStore := NewCartStore(session.NewRedisStore(redisClient))

	loaded, err := cartStore.Load(c, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
	assert.True(t, loaded.Total().IsZero())
}
