package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
	"github.com/vendora/storefront/order/internal/otel"
	"github.com/vendora/storefront/order/internal/provider"
	"github.com/vendora/storefront/order/internal/repository"
	"github.com/vendora/storefront/order/pkg/request"
	"github.com/vendora/storefront/order/pkg/response"
)

const pgUniqueViolation = "23505"

type Provider interface {
	InitializeTransaction(
		c context.Context,
		param provider.InitializeParams,
	) (provider.InitializeData, error)
	VerifyTransaction(c context.Context, reference string) (provider.VerifyData, error)
}

type OrderService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	provider Provider
}

func NewOrderService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	provider Provider,
) *OrderService {
	return &OrderService{pool: pool, queries: queries, provider: provider}
}

// derivePricing recomputes every amount from unit price and quantity. The
// draft's own subtotals and total are never trusted; a mismatch rejects the
// whole initialization.
func derivePricing(param request.InitializePayment) (decimal.Decimal, error) {
	derived := decimal.Zero
	for _, item := range param.Metadata.Items {
		derived = derived.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	if !derived.Equal(param.Metadata.TotalAmount) || !derived.Equal(param.Amount) {
		return decimal.Zero, inErrors.ErrPriceMismatch
	}
	return derived, nil
}

// toMinorUnits converts a major-unit amount to the provider's minor units.
// Amounts with sub-minor precision never reach the provider.
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount=%s has sub-minor unit precision", amount.String())
	}
	return shifted.IntPart(), nil
}

func (s *OrderService) InitializePayment(
	c context.Context,
	param request.InitializePayment,
) (response.InitializePayment, error) {
	c, span := otel.Tracer.Start(c, "OrderService InitializePayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService InitializePayment").
		Str(log.KeyTotalAmount, param.Amount.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "deriving pricing").Logger()
	logger.Info().Msg("deriving pricing")
	derived, err := derivePricing(param)
	if err != nil {
		err = fmt.Errorf(
			"failed deriving pricing for total_amount=%s with error=%w",
			param.Metadata.TotalAmount.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.InitializePayment{}, err
	}
	logger.Info().Msgf("derived pricing total=%s", derived.String())

	logger = logger.With().Str(log.KeyProcess, "converting to minor units").Logger()
	amountMinor, err := toMinorUnits(derived)
	if err != nil {
		err = fmt.Errorf("failed converting to minor units with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.InitializePayment{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	c = logger.WithContext(c)
	data, err := s.provider.InitializeTransaction(c, provider.InitializeParams{
		Email:       param.Email,
		AmountMinor: amountMinor,
		Metadata:    param.Metadata,
	})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.InitializePayment{}, err
	}
	logger.Info().
		Str(log.KeyReference, data.Reference).
		Msg("initialized transaction")

	return response.InitializePayment{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
	}, nil
}

func (s *OrderService) findVerified(
	c context.Context,
	reference string,
) (response.VerifyPayment, error) {
	order, err := s.queries.FindOrderByReference(c, reference)
	if err != nil {
		return response.VerifyPayment{}, err
	}
	items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		return response.VerifyPayment{}, err
	}
	resp := order.ResponseOrder(items)
	return response.VerifyPayment{Success: true, Reference: reference, Order: &resp}, nil
}

// VerifyPayment is idempotent: a reference already confirmed in the database
// is answered from there without another provider round trip, so however many
// times a completion watcher or a callback page asks, the provider sees at
// most one verify per payment.
func (s *OrderService) VerifyPayment(
	c context.Context,
	reference string,
) (response.VerifyPayment, error) {
	c, span := otel.Tracer.Start(c, "OrderService VerifyPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService VerifyPayment").
		Str(log.KeyReference, reference).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding verified order").Logger()
	logger.Info().Msg("finding verified order")
	verified, err := s.findVerified(c, reference)
	if err == nil {
		logger.Info().Msg("found verified order, answering from storage")
		return verified, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding verified order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}
	logger.Info().Msg("no verified order yet, asking provider")

	logger = logger.With().Str(log.KeyProcess, "verifying transaction").Logger()
	c = logger.WithContext(c)
	data, err := s.provider.VerifyTransaction(c, reference)
	if err != nil {
		err = fmt.Errorf("failed verifying transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}

	if data.Status != "success" {
		message := data.GatewayResponse
		if message == "" {
			message = "payment was not successful"
		}
		logger.Info().Msgf("payment not successful: %s", message)
		return response.VerifyPayment{
			Success:   false,
			Reference: reference,
			Error:     message,
		}, nil
	}

	logger = logger.With().Str(log.KeyProcess, "persisting verified order").Logger()
	logger.Info().Msg("persisting verified order")
	c = logger.WithContext(c)
	resp, err := s.persistVerified(c, reference, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Lost a race with a concurrent verify; the stored order wins.
			logger.Info().Msg("order already persisted by concurrent verify")
			return s.findVerified(c, reference)
		}
		err = fmt.Errorf("failed persisting verified order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}
	logger.Info().Msg("persisted verified order")

	return resp, nil
}

func (s *OrderService) persistVerified(
	c context.Context,
	reference string,
	data provider.VerifyData,
) (response.VerifyPayment, error) {
	c, span := otel.Tracer.Start(c, "OrderService persistVerified")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService persistVerified").
		Str(log.KeyReference, reference).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}
	defer func() {
		lg := logger.With().Str(log.KeyProcess, "rolling back transaction").Logger()
		err := tx.Rollback(c)
		if err != nil {
			if errors.Is(err, pgx.ErrTxClosed) {
				return
			}
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			inErrors.HandleError(err, span)
			lg.Error().Err(err).Msg(err.Error())
			return
		}
		lg.Info().Msg("rolled back transaction")
	}()

	customerEmail := data.CustomerEmail
	if customerEmail == "" {
		customerEmail = data.Metadata.Customer.Email
	}
	total := decimal.New(data.AmountMinor, -2)

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	order, err := s.queries.WithTx(tx).InsertOrder(c, repository.InsertOrderParams{
		ID:            uuid.New(),
		Reference:     reference,
		Status:        "paid",
		CustomerEmail: customerEmail,
		TotalAmount:   repository.NumericFromDecimal(total),
	})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order items").Logger()
	logger.Info().Msg("inserting order items")
	items := make([]repository.OrderItem, 0, len(data.Metadata.Items))
	for i, item := range data.Metadata.Items {
		arg := repository.InsertOrderItemParams{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       item.ProductID,
			Position:        int32(i),
			Title:           item.Title,
			Price:           repository.NumericFromDecimal(item.Price),
			Quantity:        item.Quantity,
			Subtotal:        repository.NumericFromDecimal(item.Price.Mul(decimal.NewFromInt32(item.Quantity))),
			ProductType:     item.ProductType,
			AppointmentDate: item.AppointmentDate,
			AppointmentTime: item.AppointmentTime,
			TicketType:      item.TicketType,
		}
		if err := s.queries.WithTx(tx).InsertOrderItem(c, arg); err != nil {
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.VerifyPayment{}, err
		}
		items = append(items, repository.OrderItem{
			ID:              arg.ID,
			OrderID:         arg.OrderID,
			ProductID:       arg.ProductID,
			Position:        arg.Position,
			Title:           arg.Title,
			Price:           arg.Price,
			Quantity:        arg.Quantity,
			Subtotal:        arg.Subtotal,
			ProductType:     arg.ProductType,
			AppointmentDate: arg.AppointmentDate,
			AppointmentTime: arg.AppointmentTime,
			TicketType:      arg.TicketType,
		})
	}
	logger.Info().Msgf("inserted order items count=%d", len(items))

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	if err := tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.VerifyPayment{}, err
	}
	logger.Info().Msg("committed transaction")

	resp := order.ResponseOrder(items)
	return response.VerifyPayment{Success: true, Reference: reference, Order: &resp}, nil
}
