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

// Handle is the open payment window as the watcher sees it: the only thing it
// can do is report whether the shopper has closed it.
type Handle interface {
	Closed() bool
}

type WindowState struct {
	Reference string    `json:"reference"`
	Closed    bool      `json:"closed"`
	OpenedAt  time.Time `json:"opened_at"`
}

// WindowStore keeps the payment window state in session storage. The browser
// reports closure through the controller, which flips the flag here; the
// watcher polls it through a Handle.
type WindowStore struct {
	sessions session.Store
}

func NewWindowStore(sessions session.Store) *WindowStore {
	return &WindowStore{sessions: sessions}
}

func (s *WindowStore) Open(c context.Context, sessionID string, reference string) error {
	c, span := otel.Tracer.Start(c, "WindowStore Open")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WindowStore Open").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyReference, reference).
		Logger()

	raw, err := json.Marshal(WindowState{Reference: reference, OpenedAt: time.Now()})
	if err != nil {
		err = fmt.Errorf("failed marshaling window state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.sessions.Set(c, sessionID, session.KeyWindowState, raw); err != nil {
		err = fmt.Errorf("failed saving window state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

// MarkClosed flips the closed flag for the given reference. Closure reports
// for a reference other than the open one are ignored.
func (s *WindowStore) MarkClosed(c context.Context, sessionID string, reference string) error {
	c, span := otel.Tracer.Start(c, "WindowStore MarkClosed")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WindowStore MarkClosed").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyReference, reference).
		Logger()

	state, err := s.load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading window state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if state.Reference != reference {
		logger.Warn().
			Msgf("ignoring close signal for stale reference=%s", reference)
		return nil
	}

	state.Closed = true
	raw, err := json.Marshal(state)
	if err != nil {
		err = fmt.Errorf("failed marshaling window state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.sessions.Set(c, sessionID, session.KeyWindowState, raw); err != nil {
		err = fmt.Errorf("failed saving window state with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *WindowStore) load(c context.Context, sessionID string) (WindowState, error) {
	raw, err := s.sessions.Get(c, sessionID, session.KeyWindowState)
	if err != nil {
		return WindowState{}, err
	}
	state := WindowState{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return WindowState{}, err
	}
	return state, nil
}

// Handle returns the pollable window handle for one reference. Polling errors
// read as not-closed so a transient storage hiccup never triggers a verify.
func (s *WindowStore) Handle(c context.Context, sessionID string, reference string) Handle {
	return &sessionHandle{c: c, store: s, sessionID: sessionID, reference: reference}
}

type sessionHandle struct {
	c         context.Context
	store     *WindowStore
	sessionID string
	reference string
}

func (h *sessionHandle) Closed() bool {
	state, err := h.store.load(h.c, h.sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrKeyNotFound) {
			zerolog.Ctx(h.c).
				Warn().
				Err(err).
				Str(log.KeyTag, "sessionHandle Closed").
				Str(log.KeyReference, h.reference).
				Msg("failed polling window state")
		}
		return false
	}
	return state.Reference == h.reference && state.Closed
}
