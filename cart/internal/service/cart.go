package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vendora/storefront/cart/internal/metric"
	"github.com/vendora/storefront/cart/internal/otel"
	"github.com/vendora/storefront/cart/internal/store"
	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/cart/pkg/response"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
)

// Subscriber observes the post-mutation cart. Subscribers run synchronously
// inside the mutating call, so a read issued right after a mutation always
// sees the new state.
type Subscriber func(sessionID uuid.UUID, cart response.Cart)

type CartService struct {
	store *store.CartStore

	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewCartService(store *store.CartStore) *CartService {
	return &CartService{store: store}
}

func (s *CartService) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *CartService) notify(sessionID uuid.UUID, ct response.Cart) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.subscribers {
		fn(sessionID, ct)
	}
}

func (s *CartService) GetCart(c context.Context, sessionID uuid.UUID) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetCart").
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	ct, err := s.store.Load(c, sessionID.String())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	return response.NewCart(ct), nil
}

func (s *CartService) AddItem(
	c context.Context,
	sessionID uuid.UUID,
	input cart.ItemInput,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyProductID, input.ProductID.String()).
		Str(log.KeyProductType, string(input.ProductType)).
		Int32(log.KeyQuantity, input.Quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	ct, err := s.store.Load(c, sessionID.String())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("loaded cart")

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	item := ct.Add(input)
	logger = logger.With().Str(log.KeyCartItemID, item.ID.String()).Logger()
	logger.Info().Msg("added item")

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	if err := s.store.Save(c, sessionID.String(), ct); err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartTotal, ct.Total().String()).
		Int32(log.KeyItemCount, ct.ItemCount()).
		Msg("saved cart")

	res := response.NewCart(ct)
	metric.CartMutations.WithLabelValues("add").Inc()
	metric.CartItemCount.Observe(float64(res.ItemCount))
	s.notify(sessionID, res)
	return res, nil
}

func (s *CartService) UpdateQuantity(
	c context.Context,
	sessionID uuid.UUID,
	itemID uuid.UUID,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateQuantity").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyCartItemID, itemID.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	ct, err := s.store.Load(c, sessionID.String())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("loaded cart")

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Logger()
	logger.Info().Msg("updating quantity")
	if err := ct.UpdateQuantity(itemID, quantity); err != nil {
		err = fmt.Errorf(
			"failed updating quantity of cartItemId=%s with error=%w",
			itemID.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("updated quantity")

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	if err := s.store.Save(c, sessionID.String(), ct); err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("saved cart")

	res := response.NewCart(ct)
	metric.CartMutations.WithLabelValues("update_quantity").Inc()
	metric.CartItemCount.Observe(float64(res.ItemCount))
	s.notify(sessionID, res)
	return res, nil
}

func (s *CartService) RemoveItem(
	c context.Context,
	sessionID uuid.UUID,
	itemID uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyCartItemID, itemID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	ct, err := s.store.Load(c, sessionID.String())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("loaded cart")

	logger = logger.With().Str(log.KeyProcess, "removing item").Logger()
	logger.Info().Msg("removing item")
	ct.Remove(itemID)
	logger.Info().Msg("removed item")

	logger = logger.With().Str(log.KeyProcess, "saving cart").Logger()
	logger.Info().Msg("saving cart")
	if err := s.store.Save(c, sessionID.String(), ct); err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("saved cart")

	res := response.NewCart(ct)
	metric.CartMutations.WithLabelValues("remove").Inc()
	metric.CartItemCount.Observe(float64(res.ItemCount))
	s.notify(sessionID, res)
	return res, nil
}

func (s *CartService) ClearCart(c context.Context, sessionID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Info().Msg("clearing cart")
	if err := s.store.Delete(c, sessionID.String()); err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("cleared cart")

	metric.CartMutations.WithLabelValues("clear").Inc()
	metric.CartItemCount.Observe(0)
	s.notify(sessionID, response.NewCart(cart.Cart{}))
	return nil
}

// ItemCount feeds the cart badge: the sum of quantities, not the line count.
func (s *CartService) ItemCount(c context.Context, sessionID uuid.UUID) (int32, error) {
	c, span := otel.Tracer.Start(c, "CartService ItemCount")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ItemCount").
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	ct, err := s.store.Load(c, sessionID.String())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	return ct.ItemCount(), nil
}
