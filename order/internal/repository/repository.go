// Package repository holds the hand-written queries for the verified order
// tables. An order row exists only for payments the provider confirmed.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		NaN:              false,
		Valid:            true,
	}
}

func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

type Order struct {
	ID            uuid.UUID
	Reference     string
	Status        string
	CustomerEmail string
	TotalAmount   pgtype.Numeric
	CreatedAt     pgtype.Timestamptz
}

type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	Position        int32
	Title           string
	Price           pgtype.Numeric
	Quantity        int32
	Subtotal        pgtype.Numeric
	ProductType     string
	AppointmentDate string
	AppointmentTime string
	TicketType      string
}

const insertOrder = `
insert into orders (id, reference, status, customer_email, total_amount)
values ($1, $2, $3, $4, $5)
returning id, reference, status, customer_email, total_amount, created_at
`

type InsertOrderParams struct {
	ID            uuid.UUID
	Reference     string
	Status        string
	CustomerEmail string
	TotalAmount   pgtype.Numeric
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(
		c,
		insertOrder,
		arg.ID,
		arg.Reference,
		arg.Status,
		arg.CustomerEmail,
		arg.TotalAmount,
	)
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Reference,
		&o.Status,
		&o.CustomerEmail,
		&o.TotalAmount,
		&o.CreatedAt,
	)
	return o, err
}

const insertOrderItem = `
insert into order_items (
	id, order_id, product_id, position, title, price, quantity, subtotal,
	product_type, appointment_date, appointment_time, ticket_type
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

type InsertOrderItemParams struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	Position        int32
	Title           string
	Price           pgtype.Numeric
	Quantity        int32
	Subtotal        pgtype.Numeric
	ProductType     string
	AppointmentDate string
	AppointmentTime string
	TicketType      string
}

func (q *Queries) InsertOrderItem(c context.Context, arg InsertOrderItemParams) error {
	_, err := q.db.Exec(
		c,
		insertOrderItem,
		arg.ID,
		arg.OrderID,
		arg.ProductID,
		arg.Position,
		arg.Title,
		arg.Price,
		arg.Quantity,
		arg.Subtotal,
		arg.ProductType,
		arg.AppointmentDate,
		arg.AppointmentTime,
		arg.TicketType,
	)
	return err
}

const findOrderByReference = `
select id, reference, status, customer_email, total_amount, created_at
from orders
where reference = $1
`

func (q *Queries) FindOrderByReference(c context.Context, reference string) (Order, error) {
	row := q.db.QueryRow(c, findOrderByReference, reference)
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Reference,
		&o.Status,
		&o.CustomerEmail,
		&o.TotalAmount,
		&o.CreatedAt,
	)
	return o, err
}

const findOrderItemsByOrderId = `
select id, order_id, product_id, position, title, price, quantity, subtotal,
	product_type, appointment_date, appointment_time, ticket_type
from order_items
where order_id = $1
order by position
`

func (q *Queries) FindOrderItemsByOrderId(
	c context.Context,
	orderID uuid.UUID,
) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderId, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.Position,
			&i.Title,
			&i.Price,
			&i.Quantity,
			&i.Subtotal,
			&i.ProductType,
			&i.AppointmentDate,
			&i.AppointmentTime,
			&i.TicketType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
