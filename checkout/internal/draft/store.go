package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vendora/storefront/checkout/internal/otel"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/internal/session"
)

type Store struct {
	sessions session.Store
}

func NewStore(sessions session.Store) *Store {
	return &Store{sessions: sessions}
}

func (s *Store) Load(c context.Context, sessionID string) (OrderDraft, error) {
	c, span := otel.Tracer.Start(c, "DraftStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "DraftStore Load").
		Str(log.KeySessionID, sessionID).
		Logger()

	raw, err := s.sessions.Get(c, sessionID, session.KeyOrderDraft)
	if err != nil {
		if errors.Is(err, session.ErrKeyNotFound) {
			return OrderDraft{}, inErrors.ErrDraftNotFound
		}
		err = fmt.Errorf("failed loading order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return OrderDraft{}, err
	}

	// A draft that no longer parses is as good as no draft; the shopper is
	// sent back to the cart, not shown a decoding error.
	d := OrderDraft{}
	if err := json.Unmarshal(raw, &d); err != nil {
		logger.Warn().
			Err(err).
			Msg("order draft payload corrupt, treating as missing")
		return OrderDraft{}, inErrors.ErrDraftNotFound
	}
	return d, nil
}

func (s *Store) Save(c context.Context, sessionID string, d OrderDraft) error {
	c, span := otel.Tracer.Start(c, "DraftStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "DraftStore Save").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyTotalAmount, d.TotalAmount.String()).
		Logger()

	raw, err := json.Marshal(d)
	if err != nil {
		err = fmt.Errorf("failed marshaling order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if err := s.sessions.Set(c, sessionID, session.KeyOrderDraft, raw); err != nil {
		err = fmt.Errorf("failed saving order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *Store) Delete(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "DraftStore Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "DraftStore Delete").
		Str(log.KeySessionID, sessionID).
		Logger()

	if err := s.sessions.Delete(c, sessionID, session.KeyOrderDraft); err != nil {
		err = fmt.Errorf("failed deleting order draft with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
