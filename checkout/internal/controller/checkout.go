package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/vendora/storefront/checkout/internal/otel"
	"github.com/vendora/storefront/checkout/internal/service"
	"github.com/vendora/storefront/checkout/pkg/request"
	"github.com/vendora/storefront/internal/common"
	inErrors "github.com/vendora/storefront/internal/errors"
	commonHttp "github.com/vendora/storefront/internal/http"
	"github.com/vendora/storefront/internal/log"
)

type CheckoutController struct {
	service *service.CheckoutService
}

func AttachCheckoutController(mux *mux.Router, service *service.CheckoutService) {
	controller := CheckoutController{service: service}

	router := mux.PathPrefix("/checkouts").Subrouter()
	router.HandleFunc("", controller.Submit).Methods(http.MethodPost)
	router.HandleFunc("/pay", controller.Pay).Methods(http.MethodPost)
	router.HandleFunc("/{reference}/closed", controller.WindowClosed).
		Methods(http.MethodPost)
	router.HandleFunc("/{reference}", controller.Status).Methods(http.MethodGet)
}

func (t CheckoutController) Submit(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Submit").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.SubmitCheckout{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "getting sessionId from token").Logger()
	sessionID, err := common.SessionIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting sessionId from token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeySessionID, sessionID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "submitting checkout").Logger()
	logger.Info().Msg("submitting checkout")
	c = logger.WithContext(c)
	d, err := t.service.Submit(c, sessionID, reqBody)
	if err != nil {
		err = fmt.Errorf("failed submitting checkout with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrEmptyCart) ||
			errors.Is(err, inErrors.ErrShippingAddressRequired) {
			statusCode = http.StatusBadRequest
		}
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("submitted checkout")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order draft created",
		"data": map[string]interface{}{
			"draft": d,
		},
	})
}

func (t CheckoutController) Pay(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Pay")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Pay").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	reqBody := request.Pay{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		reqBody = request.Pay{}
	}

	logger = logger.With().Str(log.KeyProcess, "getting sessionId from token").Logger()
	sessionID, err := common.SessionIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting sessionId from token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeySessionID, sessionID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "initiating payment").Logger()
	logger.Info().Msg("initiating payment")
	c = logger.WithContext(c)
	checkout, err := t.service.Pay(c, sessionID, reqBody.PopupBlocked)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if errors.Is(err, inErrors.ErrDraftNotFound) {
			commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusConflict,
				"message":    "nothing to pay, return to cart",
				"data": map[string]interface{}{
					"redirect": "/carts",
				},
			})
			return
		}
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadGateway,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(log.KeyReference, checkout.Reference).Msg("initiated payment")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "payment initiated",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) WindowClosed(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController WindowClosed")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController WindowClosed").
		Logger()

	pathValues := mux.Vars(r)
	reference := pathValues["reference"]
	logger = logger.With().Str(log.KeyReference, reference).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting sessionId from token").Logger()
	sessionID, err := common.SessionIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting sessionId from token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeySessionID, sessionID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "handling window close").Logger()
	logger.Info().Msg("handling window close")
	c = logger.WithContext(c)
	checkout, err := t.service.WindowClosed(c, sessionID, reference)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrCheckoutNotFound) {
			statusCode = http.StatusNotFound
		}
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("handled window close")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "window close recorded",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) Status(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Status")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Status").
		Logger()

	pathValues := mux.Vars(r)
	reference := pathValues["reference"]
	logger = logger.With().Str(log.KeyReference, reference).Logger()

	logger = logger.With().Str(log.KeyProcess, "getting sessionId from token").Logger()
	sessionID, err := common.SessionIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting sessionId from token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeySessionID, sessionID.String()).Logger()

	c = logger.WithContext(c)
	checkout, err := t.service.Status(c, sessionID, reference)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrCheckoutNotFound) {
			statusCode = http.StatusNotFound
		}
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "checkout status",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}
