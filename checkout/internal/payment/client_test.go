package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/storefront/internal/config"
	inErrors "github.com/vendora/storefront/internal/errors"
)

func TestInitializeReturnsAuthorizationURLAndReference(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/payments/initialize", r.URL.Path)

			body := map[string]interface{}{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "shopper@example.com", body["email"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":     "success",
				"statusCode": http.StatusOK,
				"message":    "payment initialized",
				"data": map[string]interface{}{
					"authorization_url": "https://pay.example.com/abc123",
					"reference":         "ref-100",
				},
			})
		}),
	)
	defer server.Close()

	client := NewClient(config.Gateway{BaseURL: server.URL})
	resp, err := client.Initialize(context.Background(), InitializeRequest{
		Email:  "shopper@example.com",
		Amount: decimal.RequireFromString("124.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "ref-100", resp.Reference)
}

func TestInitializeMissingAuthorizationURLIsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":     "success",
				"statusCode": http.StatusOK,
				"message":    "payment initialized",
				"data": map[string]interface{}{
					"reference": "ref-101",
				},
			})
		}),
	)
	defer server.Close()

	client := NewClient(config.Gateway{BaseURL: server.URL})
	_, err := client.Initialize(context.Background(), InitializeRequest{
		Email:  "shopper@example.com",
		Amount: decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, inErrors.ErrMissingAuthorizationURL)
}

func TestInitializeSurfacesBackendMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusBadRequest,
				"message":    "total_amount does not match cart contents",
			})
		}),
	)
	defer server.Close()

	client := NewClient(config.Gateway{BaseURL: server.URL})
	_, err := client.Initialize(context.Background(), InitializeRequest{
		Email:  "shopper@example.com",
		Amount: decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_amount does not match cart contents")
}

func TestVerifyParsesConfirmedOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/payments/verify", r.URL.Path)
			require.Equal(t, "ref-200", r.URL.Query().Get("reference"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":     "success",
				"statusCode": http.StatusOK,
				"message":    "payment verified",
				"data": map[string]interface{}{
					"success":   true,
					"reference": "ref-200",
					"order": map[string]interface{}{
						"id":           "5d7a2f35-24a1-4fd9-9df5-5b1a8c2de1f0",
						"reference":    "ref-200",
						"status":       "paid",
						"total_amount": "124.99",
					},
				},
			})
		}),
	)
	defer server.Close()

	client := NewClient(config.Gateway{BaseURL: server.URL})
	resp, err := client.Verify(context.Background(), "ref-200")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Order)
	assert.True(t, resp.Order.TotalAmount.Equal(decimal.RequireFromString("124.99")))
}

func TestVerifyPassesThroughDecline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":     "success",
				"statusCode": http.StatusOK,
				"message":    "payment verified",
				"data": map[string]interface{}{
					"success":   false,
					"reference": "ref-201",
					"error":     "insufficient funds",
				},
			})
		}),
	)
	defer server.Close()

	client := NewClient(config.Gateway{BaseURL: server.URL})
	resp, err := client.Verify(context.Background(), "ref-201")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient funds", resp.Error)
	assert.Nil(t, resp.Order)
}
