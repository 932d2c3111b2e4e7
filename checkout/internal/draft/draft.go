// Package draft assembles and persists the order draft: the validated,
// payment-ready snapshot built from the checkout form and the cart at
// submission time. The draft is what payment initialization sends to the
// gateway; it is never the authoritative order.
package draft

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront/cart/pkg/cart"
	"github.com/vendora/storefront/checkout/pkg/request"
	inErrors "github.com/vendora/storefront/internal/errors"
)

type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Line struct {
	ItemID          uuid.UUID        `json:"item_id"`
	ProductID       uuid.UUID        `json:"product_id"`
	Title           string           `json:"title"`
	Price           decimal.Decimal  `json:"price"`
	Quantity        int32            `json:"quantity"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	ProductType     cart.ProductType `json:"product_type"`
	AppointmentDate string           `json:"appointment_date,omitempty"`
	AppointmentTime string           `json:"appointment_time,omitempty"`
	TicketType      string           `json:"ticket_type,omitempty"`
}

// OrderDraft carries the cart total as assembled; it is not recomputed from
// the lines again so the amount sent to payment initialization is exactly the
// amount the shopper saw. ShippingAddress is nil for carts without physical
// goods even when the form supplied one.
type OrderDraft struct {
	Customer         Customer        `json:"customer"`
	ShippingAddress  *Address        `json:"shipping_address"`
	Lines            []Line          `json:"items"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	RequiresShipping bool            `json:"requires_shipping"`
	CreatedAt        time.Time       `json:"created_at"`
}

func Assemble(form request.SubmitCheckout, ct cart.Cart) (OrderDraft, error) {
	if len(ct.Items) == 0 {
		return OrderDraft{}, inErrors.ErrEmptyCart
	}

	requiresShipping := ct.RequiresShipping()
	if requiresShipping && form.ShippingAddress == nil {
		return OrderDraft{}, inErrors.ErrShippingAddressRequired
	}

	var address *Address
	if requiresShipping {
		address = &Address{
			Line1:      form.ShippingAddress.Line1,
			Line2:      form.ShippingAddress.Line2,
			City:       form.ShippingAddress.City,
			State:      form.ShippingAddress.State,
			PostalCode: form.ShippingAddress.PostalCode,
			Country:    form.ShippingAddress.Country,
		}
	}

	lines := make([]Line, 0, len(ct.Items))
	for _, item := range ct.Items {
		lines = append(lines, Line{
			ItemID:          item.ID,
			ProductID:       item.ProductID,
			Title:           item.Title,
			Price:           item.Price,
			Quantity:        item.Quantity,
			Subtotal:        item.Subtotal(),
			ProductType:     item.ProductType,
			AppointmentDate: item.AppointmentDate,
			AppointmentTime: item.AppointmentTime,
			TicketType:      item.TicketType,
		})
	}

	return OrderDraft{
		Customer: Customer{
			Email:     form.Email,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Phone:     form.Phone,
		},
		ShippingAddress:  address,
		Lines:            lines,
		TotalAmount:      ct.Total(),
		RequiresShipping: requiresShipping,
		CreatedAt:        time.Now(),
	}, nil
}
