// Package payment holds the checkout side of the payment flow: the gateway
// client for initialize and verify, the hosted-checkout opener, and the
// completion watcher that turns a closed payment window into exactly one
// verification.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vendora/storefront/checkout/internal/draft"
	"github.com/vendora/storefront/checkout/internal/otel"
	"github.com/vendora/storefront/internal/config"
	inErrors "github.com/vendora/storefront/internal/errors"
	commonHttp "github.com/vendora/storefront/internal/http"
	"github.com/vendora/storefront/internal/log"
)

type InitializeRequest struct {
	Email  string           `json:"email"`
	Amount decimal.Decimal  `json:"amount"`
	Draft  draft.OrderDraft `json:"metadata"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type VerifiedItem struct {
	ProductID       string          `json:"product_id"`
	Title           string          `json:"title"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int32           `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ProductType     string          `json:"product_type"`
	AppointmentDate string          `json:"appointment_date,omitempty"`
	AppointmentTime string          `json:"appointment_time,omitempty"`
	TicketType      string          `json:"ticket_type,omitempty"`
}

// VerifiedOrder is the authoritative order as the gateway recorded it. The
// confirmation page renders from this, never from the local draft.
type VerifiedOrder struct {
	ID            string          `json:"id"`
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []VerifiedItem  `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Vendor struct {
	Name         string `json:"name"`
	SupportEmail string `json:"support_email"`
}

type VerifyResponse struct {
	Success   bool           `json:"success"`
	Reference string         `json:"reference"`
	Order     *VerifiedOrder `json:"order,omitempty"`
	Vendor    *Vendor        `json:"vendor,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
}

func NewClient(cfg config.Gateway) *Client {
	return &Client{baseURL: cfg.BaseURL}
}

// Initialize asks the gateway for a hosted checkout. A 2xx response without an
// authorization_url is a failed initialization, not a transport error; the
// caller must treat it exactly like a declined initialize.
func (cl *Client) Initialize(
	c context.Context,
	param InitializeRequest,
) (InitializeResponse, error) {
	c, span := otel.Tracer.Start(c, "PaymentClient Initialize")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaymentClient Initialize").
		Str(log.KeyTotalAmount, param.Amount.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing payment").Logger()
	logger.Info().Msg("initializing payment")
	body, err := json.Marshal(param)
	if err != nil {
		err = fmt.Errorf("failed marshaling initialize request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}

	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		cl.baseURL+"/payments/initialize",
		bytes.NewReader(body),
	)
	if err != nil {
		err = fmt.Errorf("failed initializing payment with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}
	req.Header.Add(commonHttp.HeaderContentType, commonHttp.HeaderValueJson)
	req.Header.Add(commonHttp.HeaderRequestID, log.RequestIDFromContext(c))

	resp, err := otelhttp.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed initializing payment with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}
	defer resp.Body.Close()

	env := envelope{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		err = fmt.Errorf("failed decoding initialize response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf("payment initialization failed: %s", env.Message)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}

	initResp := InitializeResponse{}
	if err := json.Unmarshal(env.Data, &initResp); err != nil {
		err = fmt.Errorf("failed decoding initialize response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}
	if initResp.AuthorizationURL == "" {
		err = inErrors.ErrMissingAuthorizationURL
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeResponse{}, err
	}
	logger.Info().
		Str(log.KeyReference, initResp.Reference).
		Msg("initialized payment")

	return initResp, nil
}

// Verify asks the gateway for the final state of one payment reference.
func (cl *Client) Verify(c context.Context, reference string) (VerifyResponse, error) {
	c, span := otel.Tracer.Start(c, "PaymentClient Verify")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaymentClient Verify").
		Str(log.KeyReference, reference).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "verifying payment").Logger()
	logger.Info().Msg("verifying payment")
	req, err := http.NewRequestWithContext(
		c,
		http.MethodGet,
		cl.baseURL+"/payments/verify?reference="+url.QueryEscape(reference),
		nil,
	)
	if err != nil {
		err = fmt.Errorf("failed verifying reference=%s with error=%w", reference, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyResponse{}, err
	}
	req.Header.Add(commonHttp.HeaderRequestID, log.RequestIDFromContext(c))

	resp, err := otelhttp.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed verifying reference=%s with error=%w", reference, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyResponse{}, err
	}
	defer resp.Body.Close()

	env := envelope{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		err = fmt.Errorf("failed decoding verify response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyResponse{}, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf("failed verifying reference=%s: %s", reference, env.Message)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyResponse{}, err
	}

	verifyResp := VerifyResponse{}
	if err := json.Unmarshal(env.Data, &verifyResp); err != nil {
		err = fmt.Errorf("failed decoding verify response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyResponse{}, err
	}
	logger.Info().Bool("success", verifyResp.Success).Msg("verified payment")

	return verifyResp, nil
}
