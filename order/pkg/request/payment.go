package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Email     string `validate:"required,email" json:"email"`
	FirstName string `validate:"required"       json:"first_name"`
	LastName  string `validate:"required"       json:"last_name"`
	Phone     string `                          json:"phone"`
}

type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ItemID          uuid.UUID       `                                json:"item_id"`
	ProductID       uuid.UUID       `validate:"required"             json:"product_id"`
	Title           string          `validate:"required"             json:"title"`
	Price           decimal.Decimal `validate:"required"             json:"price"`
	Quantity        int32           `validate:"required,gte=1"       json:"quantity"`
	Subtotal        decimal.Decimal `                                json:"subtotal"`
	ProductType     string          `validate:"required"             json:"product_type"`
	AppointmentDate string          `                                json:"appointment_date,omitempty"`
	AppointmentTime string          `                                json:"appointment_time,omitempty"`
	TicketType      string          `                                json:"ticket_type,omitempty"`
}

// Metadata is the order draft as the checkout assembled it. Pricing inside it
// is advisory only; the order service re-derives every amount before any
// money moves.
type Metadata struct {
	Customer         Customer         `validate:"required"             json:"customer"`
	ShippingAddress  *ShippingAddress `                                json:"shipping_address"`
	Items            []OrderItem      `validate:"required,min=1,dive"  json:"items"`
	TotalAmount      decimal.Decimal  `validate:"required"             json:"total_amount"`
	RequiresShipping bool             `                                json:"requires_shipping"`
}

type InitializePayment struct {
	Email    string          `validate:"required,email" json:"email"`
	Amount   decimal.Decimal `validate:"required"       json:"amount"`
	Metadata Metadata        `validate:"required"       json:"metadata"`
}
