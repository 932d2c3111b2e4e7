package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vendora/storefront/checkout/internal/otel"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/internal/session"
)

// CheckoutState is the session-visible progress of one payment attempt. The
// confirmation page reads the Order from here and from nowhere else.
type CheckoutState struct {
	State            State          `json:"state"`
	Reference        string         `json:"reference"`
	AuthorizationURL string         `json:"authorization_url,omitempty"`
	Mode             Mode           `json:"mode,omitempty"`
	Message          string         `json:"message,omitempty"`
	Order            *VerifiedOrder `json:"order,omitempty"`
	Vendor           *Vendor        `json:"vendor,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type StateStore struct {
	sessions session.Store
}

func NewStateStore(sessions session.Store) *StateStore {
	return &StateStore{sessions: sessions}
}

func (s *StateStore) Load(c context.Context, sessionID string) (CheckoutState, error) {
	c, span := otel.Tracer.Start(c, "StateStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "StateStore Load").
		Str(log.KeySessionID, sessionID).
		Logger()

	raw, err := s.sessions.Get(c, sessionID, session.KeyCheckout)
	if err != nil {
		if errors.Is(err, session.ErrKeyNotFound) {
			return CheckoutState{}, inErrors.ErrCheckoutNotFound
		}
		err = fmt.Errorf("failed loading checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return CheckoutState{}, err
	}

	state := CheckoutState{}
	if err := json.Unmarshal(raw, &state); err != nil {
		err = fmt.Errorf("failed unmarshaling checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return CheckoutState{}, err
	}
	return state, nil
}

func (s *StateStore) Save(c context.Context, sessionID string, state CheckoutState) error {
	c, span := otel.Tracer.Start(c, "StateStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "StateStore Save").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyReference, state.Reference).
		Str(log.KeyWatcherState, string(state.State)).
		Logger()

	state.UpdatedAt = time.Now()
	raw, err := json.Marshal(state)
	if err != nil {
		err = fmt.Errorf("failed marshaling checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if err := s.sessions.Set(c, sessionID, session.KeyCheckout, raw); err != nil {
		err = fmt.Errorf("failed saving checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *StateStore) Delete(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "StateStore Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "StateStore Delete").
		Str(log.KeySessionID, sessionID).
		Logger()

	if err := s.sessions.Delete(c, sessionID, session.KeyCheckout); err != nil {
		err = fmt.Errorf("failed deleting checkout state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
