// Package store persists the cart aggregate in durable session storage under
// one well-known key per session.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vendora/storefront/cart/internal/otel"
	"github.com/vendora/storefront/cart/pkg/cart"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/internal/session"
)

type CartStore struct {
	sessions session.Store
}

func NewCartStore(sessions session.Store) *CartStore {
	return &CartStore{sessions: sessions}
}

// Load never fails on an absent or unreadable cart: a session without a
// stored cart simply has an empty one.
func (s *CartStore) Load(c context.Context, sessionID string) (cart.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Load").
		Str(log.KeySessionID, sessionID).
		Logger()

	raw, err := s.sessions.Get(c, sessionID, session.KeyCart)
	if err != nil {
		if errors.Is(err, session.ErrKeyNotFound) {
			return cart.Cart{}, nil
		}
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return cart.Cart{}, err
	}

	ct := cart.Cart{}
	if err := json.Unmarshal(raw, &ct); err != nil {
		err = fmt.Errorf("failed unmarshaling cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg("cart payload corrupt, starting empty")
		return cart.Cart{}, nil
	}
	return ct, nil
}

func (s *CartStore) Save(c context.Context, sessionID string, ct cart.Cart) error {
	c, span := otel.Tracer.Start(c, "CartStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Save").
		Str(log.KeySessionID, sessionID).
		Int(log.KeyCartItems, len(ct.Items)).
		Logger()

	raw, err := json.Marshal(ct)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if err := s.sessions.Set(c, sessionID, session.KeyCart, raw); err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *CartStore) Delete(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "CartStore Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Delete").
		Str(log.KeySessionID, sessionID).
		Logger()

	if err := s.sessions.Delete(c, sessionID, session.KeyCart); err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
