// Package provider is the client for the external hosted payment provider.
// Amounts cross this boundary in minor units only.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vendora/storefront/internal/config"
	inErrors "github.com/vendora/storefront/internal/errors"
	commonHttp "github.com/vendora/storefront/internal/http"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/order/internal/otel"
	"github.com/vendora/storefront/order/pkg/request"
)

type InitializeParams struct {
	Email       string           `json:"email"`
	AmountMinor int64            `json:"amount"`
	Currency    string           `json:"currency"`
	Metadata    request.Metadata `json:"metadata"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyData struct {
	Status          string           `json:"status"`
	Reference       string           `json:"reference"`
	AmountMinor     int64            `json:"amount"`
	Currency        string           `json:"currency"`
	GatewayResponse string           `json:"gateway_response"`
	CustomerEmail   string           `json:"customer_email"`
	Metadata        request.Metadata `json:"metadata"`
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL   string
	secretKey string
	currency  string
}

func NewClient(cfg config.Provider) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		currency:  cfg.Currency,
	}
}

func (cl *Client) InitializeTransaction(
	c context.Context,
	param InitializeParams,
) (InitializeData, error) {
	c, span := otel.Tracer.Start(c, "ProviderClient InitializeTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProviderClient InitializeTransaction").
		Int64("amountMinor", param.AmountMinor).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	param.Currency = cl.currency
	body, err := json.Marshal(param)
	if err != nil {
		err = fmt.Errorf("failed marshaling initialize params with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeData{}, err
	}

	data := InitializeData{}
	if err := cl.call(c, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return InitializeData{}, err
	}
	logger.Info().
		Str(log.KeyReference, data.Reference).
		Msg("initialized transaction")

	return data, nil
}

func (cl *Client) VerifyTransaction(
	c context.Context,
	reference string,
) (VerifyData, error) {
	c, span := otel.Tracer.Start(c, "ProviderClient VerifyTransaction")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProviderClient VerifyTransaction").
		Str(log.KeyReference, reference).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "verifying transaction").Logger()
	logger.Info().Msg("verifying transaction")
	data := VerifyData{}
	if err := cl.call(c, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		err = fmt.Errorf("failed verifying reference=%s with error=%w", reference, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return VerifyData{}, err
	}
	logger.Info().Str("transactionStatus", data.Status).Msg("verified transaction")

	return data, nil
}

func (cl *Client) call(
	c context.Context,
	method string,
	path string,
	body []byte,
	out interface{},
) error {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(c, method, cl.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Add(commonHttp.HeaderContentType, commonHttp.HeaderValueJson)
	req.Header.Add("Authorization", "Bearer "+cl.secretKey)

	resp, err := otelhttp.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	api := apiResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed decoding provider response with error=%w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices ||
		!api.Status {
		return fmt.Errorf("provider rejected request: %s", api.Message)
	}
	if err := json.Unmarshal(api.Data, out); err != nil {
		return fmt.Errorf("failed decoding provider response with error=%w", err)
	}
	return nil
}
