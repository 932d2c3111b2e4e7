package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/storefront/cart/internal/store"
	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/cart/pkg/response"
	"github.com/vendora/storefront/internal/session"
)

func newTestService() *CartService {
	return NewCartService(store.NewCartStore(session.NewMemoryStore()))
}

func TestGetCartUninitializedReturnsEmpty(t *testing.T) {
	svc := newTestService()

	ct, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, ct.Items)
	assert.True(t, ct.Total.IsZero())
	assert.Equal(t, int32(0), ct.ItemCount)
}

func TestMutationsKeepTotalInvariant(t *testing.T) {
	c := context.Background()
	svc := newTestService()
	sessionID := uuid.New()

	first, err := svc.AddItem(c, sessionID, cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "poster",
		Price:       decimal.NewFromInt(2000),
		ProductType: cart.ProductTypePhysical,
		Quantity:    3,
	})
	require.NoError(t, err)
	_, err = svc.AddItem(c, sessionID, cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "ebook",
		Price:       decimal.NewFromInt(1500),
		ProductType: cart.ProductTypeDigital,
		Quantity:    1,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(c, sessionID, first.Items[0].ID, 5)
	require.NoError(t, err)

	expected := decimal.Zero
	for _, item := range updated.Items {
		expected = expected.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	assert.True(t, updated.Total.Equal(expected))

	afterRemove, err := svc.RemoveItem(c, sessionID, updated.Items[0].ID)
	require.NoError(t, err)
	expected = decimal.Zero
	for _, item := range afterRemove.Items {
		expected = expected.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	assert.True(t, afterRemove.Total.Equal(expected))
}

func TestRemoveUnknownItemLeavesCartUnchanged(t *testing.T) {
	c := context.Background()
	svc := newTestService()
	sessionID := uuid.New()

	_, err := svc.AddItem(c, sessionID, cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "poster",
		Price:       decimal.NewFromInt(2000),
		ProductType: cart.ProductTypePhysical,
		Quantity:    2,
	})
	require.NoError(t, err)

	ct, err := svc.RemoveItem(c, sessionID, uuid.New())
	require.NoError(t, err)
	assert.Len(t, ct.Items, 1)
	assert.True(t, ct.Total.Equal(decimal.NewFromInt(4000)))
}

func TestSubscriberSeesPostMutationState(t *testing.T) {
	c := context.Background()
	svc := newTestService()
	sessionID := uuid.New()

	observed := []response.Cart{}
	svc.Subscribe(func(id uuid.UUID, ct response.Cart) {
		assert.Equal(t, sessionID, id)
		observed = append(observed, ct)
	})

	added, err := svc.AddItem(c, sessionID, cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "poster",
		Price:       decimal.NewFromInt(2000),
		ProductType: cart.ProductTypePhysical,
		Quantity:    1,
	})
	require.NoError(t, err)

	// the subscriber ran before AddItem returned and saw the same state
	require.Len(t, observed, 1)
	assert.Equal(t, added.ItemCount, observed[0].ItemCount)
	assert.True(t, added.Total.Equal(observed[0].Total))

	require.NoError(t, svc.ClearCart(c, sessionID))
	require.Len(t, observed, 2)
	assert.Equal(t, int32(0), observed[1].ItemCount)

	count, err := svc.ItemCount(c, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), count)
}

func TestSessionsAreIsolated(t *testing.T) {
	c := context.Background()
	svc := newTestService()
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.AddItem(c, alice, cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "poster",
		Price:       decimal.NewFromInt(2000),
		ProductType: cart.ProductTypePhysical,
		Quantity:    1,
	})
	require.NoError(t, err)

	bobCart, err := svc.GetCart(c, bob)
	require.NoError(t, err)
	assert.Empty(t, bobCart.Items)
}
