package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/checkout/internal/draft"
	"github.com/vendora/storefront/checkout/internal/otel"
	"github.com/vendora/storefront/checkout/internal/payment"
	"github.com/vendora/storefront/checkout/pkg/request"
	"github.com/vendora/storefront/checkout/pkg/response"
	"github.com/vendora/storefront/internal/config"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/internal/session"
)

type Gateway interface {
	Initialize(c context.Context, param payment.InitializeRequest) (payment.InitializeResponse, error)
	Verify(c context.Context, reference string) (payment.VerifyResponse, error)
}

type CheckoutService struct {
	sessions      session.Store
	drafts        *draft.Store
	windows       *payment.WindowStore
	opener        *payment.Opener
	states        *payment.StateStore
	gateway       Gateway
	pollInterval  time.Duration
	verifyTimeout time.Duration
}

func NewCheckoutService(
	sessions session.Store,
	gateway Gateway,
	cfg config.Checkout,
) *CheckoutService {
	pollInterval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	verifyTimeout := time.Duration(cfg.VerifyTimeoutSec) * time.Second
	if verifyTimeout <= 0 {
		verifyTimeout = 30 * time.Second
	}
	windows := payment.NewWindowStore(sessions)
	return &CheckoutService{
		sessions:      sessions,
		drafts:        draft.NewStore(sessions),
		windows:       windows,
		opener:        payment.NewOpener(windows),
		states:        payment.NewStateStore(sessions),
		gateway:       gateway,
		pollInterval:  pollInterval,
		verifyTimeout: verifyTimeout,
	}
}

func (svc *CheckoutService) loadCart(c context.Context, sessionID string) cart.Cart {
	raw, err := svc.sessions.Get(c, sessionID, session.KeyCart)
	if err != nil {
		return cart.Cart{}
	}
	ct := cart.Cart{}
	if err := json.Unmarshal(raw, &ct); err != nil {
		zerolog.Ctx(c).
			Warn().
			Err(err).
			Str(log.KeyTag, "CheckoutService loadCart").
			Msg("cart payload corrupt, treating as empty")
		return cart.Cart{}
	}
	return ct
}

// Submit validates the checkout form against the current cart and persists
// the resulting order draft for the payment step.
func (svc *CheckoutService) Submit(
	c context.Context,
	sessionID uuid.UUID,
	form request.SubmitCheckout,
) (response.Draft, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Submit").
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "assembling order draft").Logger()
	logger.Info().Msg("assembling order draft")
	c = logger.WithContext(c)
	ct := svc.loadCart(c, sessionID.String())
	d, err := draft.Assemble(form, ct)
	if err != nil {
		err = fmt.Errorf("failed assembling order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Draft{}, err
	}
	logger = logger.With().Str(log.KeyTotalAmount, d.TotalAmount.String()).Logger()
	logger.Info().Msg("assembled order draft")

	logger = logger.With().Str(log.KeyProcess, "saving order draft").Logger()
	c = logger.WithContext(c)
	if err := svc.drafts.Save(c, sessionID.String(), d); err != nil {
		err = fmt.Errorf("failed saving order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Draft{}, err
	}
	logger.Info().Msg("saved order draft")

	return response.NewDraft(d), nil
}

// Pay initializes the payment for the stored draft and opens the hosted
// checkout. In popup mode a watcher goroutine follows the window until the
// payment is verified; in redirect mode verification waits for the shopper's
// return trip. The draft survives every failure path so the shopper can
// retry without filling the form again.
func (svc *CheckoutService) Pay(
	c context.Context,
	sessionID uuid.UUID,
	popupBlocked bool,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Pay")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Pay").
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading order draft").Logger()
	c = logger.WithContext(c)
	d, err := svc.drafts.Load(c, sessionID.String())
	if err != nil {
		if !errors.Is(err, inErrors.ErrDraftNotFound) {
			err = fmt.Errorf("failed loading order draft with error=%w", err)
		}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyTotalAmount, d.TotalAmount.String()).Logger()
	logger.Info().Msg("loaded order draft")

	logger = logger.With().Str(log.KeyProcess, "initializing payment").Logger()
	c = logger.WithContext(c)
	init, err := svc.gateway.Initialize(c, payment.InitializeRequest{
		Email:  d.Customer.Email,
		Amount: d.TotalAmount,
		Draft:  d,
	})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyReference, init.Reference).Logger()
	logger.Info().Msg("initialized payment")

	// Detached from the request so the watcher outlives the pay response.
	wc := context.WithoutCancel(c)

	logger = logger.With().Str(log.KeyProcess, "opening payment window").Logger()
	mode, handle, err := svc.opener.Open(wc, sessionID.String(), init.Reference, !popupBlocked)
	if err != nil {
		err = fmt.Errorf("failed opening payment window with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	state := payment.CheckoutState{
		State:            payment.StateAwaitingClose,
		Reference:        init.Reference,
		AuthorizationURL: init.AuthorizationURL,
		Mode:             mode,
	}
	if err := svc.states.Save(c, sessionID.String(), state); err != nil {
		err = fmt.Errorf("failed saving checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	if mode == payment.ModePopup {
		watcher := payment.NewWatcher(
			init.Reference,
			handle,
			svc.gateway,
			svc.pollInterval,
			svc.verifyTimeout,
			svc.transitionFunc(sessionID.String(), state),
		)
		go watcher.Watch(wc)
	}

	return response.NewCheckout(state), nil
}

func (svc *CheckoutService) transitionFunc(
	sessionID string,
	base payment.CheckoutState,
) func(c context.Context, r payment.Result) {
	return func(c context.Context, r payment.Result) {
		svc.applyTransition(c, sessionID, base, r)
	}
}

// applyTransition persists every watcher transition. Confirmation is the only
// transition with side effects beyond the state itself: the cart and the
// draft are consumed. Failure keeps both so a retry is one click away.
func (svc *CheckoutService) applyTransition(
	c context.Context,
	sessionID string,
	base payment.CheckoutState,
	r payment.Result,
) {
	c, span := otel.Tracer.Start(c, "CheckoutService applyTransition")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService applyTransition").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyReference, r.Reference).
		Str(log.KeyWatcherState, string(r.State)).
		Logger()
	c = logger.WithContext(c)

	state := base
	state.State = r.State
	state.Message = r.Message
	state.Order = r.Order
	state.Vendor = r.Vendor

	if r.State == payment.StateConfirmed {
		logger = logger.With().Str(log.KeyProcess, "consuming cart and draft").Logger()
		if err := svc.sessions.Delete(c, sessionID, session.KeyCart); err != nil {
			err = fmt.Errorf("failed clearing cart after confirmation with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		if err := svc.drafts.Delete(c, sessionID); err != nil {
			err = fmt.Errorf("failed deleting order draft after confirmation with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("consumed cart and draft")
	}

	if err := svc.states.Save(c, sessionID, state); err != nil {
		err = fmt.Errorf("failed saving checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
}

type closedHandle struct{}

func (closedHandle) Closed() bool { return true }

// WindowClosed is the browser's report that the payment window is gone. In
// popup mode it only flips the flag the running watcher polls; in redirect
// mode there is no watcher, so the verification runs here on the shopper's
// return trip.
func (svc *CheckoutService) WindowClosed(
	c context.Context,
	sessionID uuid.UUID,
	reference string,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService WindowClosed")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService WindowClosed").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyReference, reference).
		Logger()
	c = logger.WithContext(c)

	state, err := svc.states.Load(c, sessionID.String())
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	if state.Reference != reference {
		logger.Warn().Msgf("close signal for stale reference=%s", reference)
		return response.NewCheckout(state), nil
	}

	if state.Mode == payment.ModePopup {
		if err := svc.windows.MarkClosed(c, sessionID.String(), reference); err != nil {
			err = fmt.Errorf("failed marking window closed with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Checkout{}, err
		}
		return response.NewCheckout(state), nil
	}

	if state.State != payment.StateAwaitingClose {
		return response.NewCheckout(state), nil
	}

	watcher := payment.NewWatcher(
		reference,
		closedHandle{},
		svc.gateway,
		time.Millisecond,
		svc.verifyTimeout,
		svc.transitionFunc(sessionID.String(), state),
	)
	watcher.Watch(c)

	state, err = svc.states.Load(c, sessionID.String())
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	return response.NewCheckout(state), nil
}

// Status is what the confirmation page renders from.
func (svc *CheckoutService) Status(
	c context.Context,
	sessionID uuid.UUID,
	reference string,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Status")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Status").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyReference, reference).
		Logger()

	state, err := svc.states.Load(c, sessionID.String())
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	if state.Reference != reference {
		err := inErrors.ErrCheckoutNotFound
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	return response.NewCheckout(state), nil
}
