package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/vendora/storefront/order/internal/provider"
	"github.com/vendora/storefront/order/internal/repository"
	"github.com/vendora/storefront/order/pkg/request"
)

func setupPostgres(t *testing.T, c context.Context) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join("..", "repository", "testdata", "schema.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	pgConnStr, err := pgContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pool, err := pgxpool.New(c, pgConnStr)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)

	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}
	return pool
}

func successfulVerifyData(reference string) provider.VerifyData {
	return provider.VerifyData{
		Status:        "success",
		Reference:     reference,
		AmountMinor:   12499,
		Currency:      "NGN",
		CustomerEmail: "shopper@example.com",
		Metadata: request.Metadata{
			Customer: request.Customer{
				Email:     "shopper@example.com",
				FirstName: "Ade",
				LastName:  "Okafor",
			},
			Items: []request.OrderItem{
				{
					ProductID:   uuid.New(),
					Title:       "conference ticket",
					Price:       decimal.RequireFromString("124.99"),
					Quantity:    1,
					ProductType: "event",
					TicketType:  "vip",
				},
			},
			TotalAmount: decimal.RequireFromString("124.99"),
		},
	}
}

func TestVerifyPaymentPersistsAndIsIdempotent(t *testing.T) {
	c := context.Background()
	pool := setupPostgres(t, c)

	fake := &fakeProvider{verifyData: successfulVerifyData("ref-900")}
	svc := NewOrderService(pool, repository.New(pool), fake)

	first, err := svc.VerifyPayment(c, "ref-900")
	require.NoError(t, err)
	require.True(t, first.Success)
	require.NotNil(t, first.Order)
	assert.True(t, first.Order.TotalAmount.Equal(decimal.RequireFromString("124.99")))
	require.Len(t, first.Order.Items, 1)
	assert.Equal(t, "vip", first.Order.Items[0].TicketType)

	// The stored order answers every later verify; the provider hears nothing.
	second, err := svc.VerifyPayment(c, "ref-900")
	require.NoError(t, err)
	require.True(t, second.Success)
	require.NotNil(t, second.Order)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 1, fake.verifyCalls.Load())
}

func TestVerifyPaymentDeclinedPersistsNothing(t *testing.T) {
	c := context.Background()
	pool := setupPostgres(t, c)

	fake := &fakeProvider{
		verifyData: provider.VerifyData{
			Status:          "failed",
			Reference:       "ref-901",
			GatewayResponse: "insufficient funds",
		},
	}
	svc := NewOrderService(pool, repository.New(pool), fake)

	resp, err := svc.VerifyPayment(c, "ref-901")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient funds", resp.Error)
	assert.Nil(t, resp.Order)

	// A declined payment leaves no order row, so a retry asks the provider
	// again and can still succeed.
	fake.verifyData = successfulVerifyData("ref-901")
	retry, err := svc.VerifyPayment(c, "ref-901")
	require.NoError(t, err)
	assert.True(t, retry.Success)
	assert.EqualValues(t, 2, fake.verifyCalls.Load())
}
