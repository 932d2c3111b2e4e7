package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/checkout/internal/payment"
	"github.com/vendora/storefront/checkout/pkg/request"
	"github.com/vendora/storefront/internal/config"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/session"
)

type fakeGateway struct {
	initResp    payment.InitializeResponse
	initErr     error
	verifyResp  payment.VerifyResponse
	verifyErr   error
	initCalls   atomic.Int32
	verifyCalls atomic.Int32
}

func (g *fakeGateway) Initialize(
	c context.Context,
	param payment.InitializeRequest,
) (payment.InitializeResponse, error) {
	g.initCalls.Add(1)
	if g.initErr != nil {
		return payment.InitializeResponse{}, g.initErr
	}
	return g.initResp, nil
}

func (g *fakeGateway) Verify(
	c context.Context,
	reference string,
) (payment.VerifyResponse, error) {
	g.verifyCalls.Add(1)
	if g.verifyErr != nil {
		return payment.VerifyResponse{}, g.verifyErr
	}
	return g.verifyResp, nil
}

func seedCart(t *testing.T, sessions session.Store, sessionID uuid.UUID) cart.Cart {
	t.Helper()

	ct := cart.Cart{}
	ct.Add(cart.ItemInput{
		ProductID:   uuid.New(),
		Title:       "ebook",
		Price:       decimal.RequireFromString("12.50"),
		ProductType: cart.ProductTypeDigital,
		Quantity:    2,
	})
	raw, err := json.Marshal(ct)
	require.NoError(t, err)
	require.NoError(
		t,
		sessions.Set(context.Background(), sessionID.String(), session.KeyCart, raw),
	)
	return ct
}

func submitDraft(
	t *testing.T,
	svc *CheckoutService,
	sessionID uuid.UUID,
) {
	t.Helper()

	_, err := svc.Submit(context.Background(), sessionID, request.SubmitCheckout{
		Email:     "shopper@example.com",
		FirstName: "Ade",
		LastName:  "Okafor",
		Phone:     "+2348012345678",
	})
	require.NoError(t, err)
}

func checkoutConfig() config.Checkout {
	return config.Checkout{PollIntervalMs: 5, VerifyTimeoutSec: 2}
}

func confirmedVerify(reference string) payment.VerifyResponse {
	return payment.VerifyResponse{
		Success:   true,
		Reference: reference,
		Order: &payment.VerifiedOrder{
			ID:          uuid.NewString(),
			Reference:   reference,
			Status:      "paid",
			TotalAmount: decimal.RequireFromString("25.00"),
		},
	}
}

func TestPayWithoutDraftHasNothingToPay(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())

	_, err := svc.Pay(context.Background(), uuid.New(), false)
	require.ErrorIs(t, err, inErrors.ErrDraftNotFound)
	assert.EqualValues(t, 0, gateway.initCalls.Load())
}

func TestPayWithCorruptDraftHasNothingToPay(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())
	sessionID := uuid.New()
	require.NoError(t, sessions.Set(
		context.Background(),
		sessionID.String(),
		session.KeyOrderDraft,
		[]byte("{not json"),
	))

	// A draft that no longer parses reads as missing, so the shopper lands on
	// the cart redirect instead of a decoding error.
	_, err := svc.Pay(context.Background(), sessionID, false)
	require.ErrorIs(t, err, inErrors.ErrDraftNotFound)
	assert.EqualValues(t, 0, gateway.initCalls.Load())
}

func TestFailedInitializationRetainsDraftForRetry(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{initErr: inErrors.ErrMissingAuthorizationURL}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())
	sessionID := uuid.New()
	seedCart(t, sessions, sessionID)
	submitDraft(t, svc, sessionID)

	_, err := svc.Pay(context.Background(), sessionID, false)
	require.ErrorIs(t, err, inErrors.ErrMissingAuthorizationURL)

	// The draft must survive the failure so a second attempt needs no new form.
	gateway.initErr = nil
	gateway.initResp = payment.InitializeResponse{
		AuthorizationURL: "https://pay.example.com/xyz",
		Reference:        "ref-retry",
	}
	resp, err := svc.Pay(context.Background(), sessionID, false)
	require.NoError(t, err)
	assert.Equal(t, "ref-retry", resp.Reference)
	assert.EqualValues(t, 2, gateway.initCalls.Load())
}

func TestConfirmedPaymentConsumesCartAndDraft(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{
		initResp: payment.InitializeResponse{
			AuthorizationURL: "https://pay.example.com/abc",
			Reference:        "ref-confirm",
		},
		verifyResp: confirmedVerify("ref-confirm"),
	}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())
	sessionID := uuid.New()
	seedCart(t, sessions, sessionID)
	submitDraft(t, svc, sessionID)

	resp, err := svc.Pay(context.Background(), sessionID, false)
	require.NoError(t, err)
	require.Equal(t, payment.ModePopup, resp.Mode)
	require.Equal(t, payment.StateAwaitingClose, resp.State)

	_, err = svc.WindowClosed(context.Background(), sessionID, "ref-confirm")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		state, err := svc.Status(context.Background(), sessionID, "ref-confirm")
		return err == nil && state.State == payment.StateConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	state, err := svc.Status(context.Background(), sessionID, "ref-confirm")
	require.NoError(t, err)
	require.NotNil(t, state.Order)
	// The confirmation shows the backend's total, not the local draft's.
	assert.True(t, state.Order.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.EqualValues(t, 1, gateway.verifyCalls.Load())

	_, err = sessions.Get(context.Background(), sessionID.String(), session.KeyCart)
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
	_, err = sessions.Get(context.Background(), sessionID.String(), session.KeyOrderDraft)
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
}

func TestFailedPaymentRetainsCartAndDraft(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{
		initResp: payment.InitializeResponse{
			AuthorizationURL: "https://pay.example.com/abc",
			Reference:        "ref-fail",
		},
		verifyResp: payment.VerifyResponse{
			Success:   false,
			Reference: "ref-fail",
			Error:     "card declined",
		},
	}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())
	sessionID := uuid.New()
	seedCart(t, sessions, sessionID)
	submitDraft(t, svc, sessionID)

	_, err := svc.Pay(context.Background(), sessionID, false)
	require.NoError(t, err)
	_, err = svc.WindowClosed(context.Background(), sessionID, "ref-fail")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		state, err := svc.Status(context.Background(), sessionID, "ref-fail")
		return err == nil && state.State == payment.StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	state, err := svc.Status(context.Background(), sessionID, "ref-fail")
	require.NoError(t, err)
	assert.Contains(t, state.Message, "card declined")
	assert.Contains(t, state.Message, "ref-fail")

	_, err = sessions.Get(context.Background(), sessionID.String(), session.KeyCart)
	assert.NoError(t, err)
	_, err = sessions.Get(context.Background(), sessionID.String(), session.KeyOrderDraft)
	assert.NoError(t, err)
}

func TestRedirectFallbackVerifiesOnReturn(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	gateway := &fakeGateway{
		initResp: payment.InitializeResponse{
			AuthorizationURL: "https://pay.example.com/abc",
			Reference:        "ref-redirect",
		},
		verifyResp: confirmedVerify("ref-redirect"),
	}
	svc := NewCheckoutService(sessions, gateway, checkoutConfig())
	sessionID := uuid.New()
	seedCart(t, sessions, sessionID)
	submitDraft(t, svc, sessionID)

	resp, err := svc.Pay(context.Background(), sessionID, true)
	require.NoError(t, err)
	require.Equal(t, payment.ModeRedirect, resp.Mode)
	assert.Equal(t, "https://pay.example.com/abc", resp.AuthorizationURL)

	state, err := svc.WindowClosed(context.Background(), sessionID, "ref-redirect")
	require.NoError(t, err)
	assert.Equal(t, payment.StateConfirmed, state.State)
	assert.EqualValues(t, 1, gateway.verifyCalls.Load())
}

func TestStatusUnknownReference(t *testing.T) {
	t.Parallel()

	sessions := session.NewMemoryStore()
	svc := NewCheckoutService(sessions, &fakeGateway{}, checkoutConfig())

	_, err := svc.Status(context.Background(), uuid.New(), "ref-unknown")
	require.ErrorIs(t, err, inErrors.ErrCheckoutNotFound)
}
