package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/order/internal/provider"
	"github.com/vendora/storefront/order/pkg/request"
)

type fakeProvider struct {
	initData    provider.InitializeData
	initErr     error
	verifyData  provider.VerifyData
	verifyErr   error
	initCalls   atomic.Int32
	verifyCalls atomic.Int32
}

func (p *fakeProvider) InitializeTransaction(
	c context.Context,
	param provider.InitializeParams,
) (provider.InitializeData, error) {
	p.initCalls.Add(1)
	if p.initErr != nil {
		return provider.InitializeData{}, p.initErr
	}
	return p.initData, nil
}

func (p *fakeProvider) VerifyTransaction(
	c context.Context,
	reference string,
) (provider.VerifyData, error) {
	p.verifyCalls.Add(1)
	if p.verifyErr != nil {
		return provider.VerifyData{}, p.verifyErr
	}
	return p.verifyData, nil
}

func initializeParam(price string, quantity int32, total string) request.InitializePayment {
	return request.InitializePayment{
		Email:  "shopper@example.com",
		Amount: decimal.RequireFromString(total),
		Metadata: request.Metadata{
			Customer: request.Customer{
				Email:     "shopper@example.com",
				FirstName: "Ade",
				LastName:  "Okafor",
			},
			Items: []request.OrderItem{
				{
					ProductID:   uuid.New(),
					Title:       "ebook",
					Price:       decimal.RequireFromString(price),
					Quantity:    quantity,
					ProductType: "digital",
				},
			},
			TotalAmount: decimal.RequireFromString(total),
		},
	}
}

func TestInitializePaymentRejectsMismatchedTotal(t *testing.T) {
	t.Parallel()

	fake := &fakeProvider{}
	svc := NewOrderService(nil, nil, fake)

	// 2 x 12.50 is 25.00, the draft claims 20.00.
	_, err := svc.InitializePayment(context.Background(), initializeParam("12.50", 2, "20.00"))
	require.ErrorIs(t, err, inErrors.ErrPriceMismatch)
	assert.EqualValues(t, 0, fake.initCalls.Load())
}

func TestInitializePaymentSendsMinorUnits(t *testing.T) {
	t.Parallel()

	fake := &fakeProvider{
		initData: provider.InitializeData{
			AuthorizationURL: "https://pay.example.com/abc",
			Reference:        "ref-300",
		},
	}
	svc := NewOrderService(nil, nil, fake)

	resp, err := svc.InitializePayment(
		context.Background(),
		initializeParam("12.50", 2, "25.00"),
	)
	require.NoError(t, err)
	assert.Equal(t, "ref-300", resp.Reference)
	assert.Equal(t, "https://pay.example.com/abc", resp.AuthorizationURL)
	assert.EqualValues(t, 1, fake.initCalls.Load())
}

func TestDerivePricing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		param   request.InitializePayment
		want    string
		wantErr error
	}{
		{
			name:  "matching totals pass",
			param: initializeParam("12.50", 3, "37.50"),
			want:  "37.50",
		},
		{
			name:    "inflated subtotal is rejected",
			param:   initializeParam("12.50", 3, "38.00"),
			wantErr: inErrors.ErrPriceMismatch,
		},
		{
			name: "amount diverging from metadata total is rejected",
			param: func() request.InitializePayment {
				p := initializeParam("12.50", 3, "37.50")
				p.Amount = decimal.RequireFromString("36.00")
				return p
			}(),
			wantErr: inErrors.ErrPriceMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			derived, err := derivePricing(tt.param)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, derived.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	minor, err := toMinorUnits(decimal.RequireFromString("124.99"))
	require.NoError(t, err)
	assert.EqualValues(t, 12499, minor)

	minor, err = toMinorUnits(decimal.RequireFromString("10"))
	require.NoError(t, err)
	assert.EqualValues(t, 1000, minor)

	_, err = toMinorUnits(decimal.RequireFromString("0.005"))
	require.Error(t, err)
}
