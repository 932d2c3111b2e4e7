// Package cart holds the session-scoped cart aggregate: an ordered list of
// line items with a total derived from them on every read. Product data on a
// line is a snapshot captured at add-time; the catalog stays authoritative.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inErrors "github.com/vendora/storefront/internal/errors"
)

type ProductType string

const (
	ProductTypePhysical    ProductType = "physical"
	ProductTypeDigital     ProductType = "digital"
	ProductTypeEvent       ProductType = "event"
	ProductTypeAppointment ProductType = "appointment"
)

type Item struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	Price           decimal.Decimal `json:"price"`
	ProductType     ProductType     `json:"product_type"`
	Quantity        int32           `json:"quantity"`
	AppointmentDate string          `json:"appointment_date,omitempty"`
	AppointmentTime string          `json:"appointment_time,omitempty"`
	TicketType      string          `json:"ticket_type,omitempty"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt32(i.Quantity))
}

// mergeKey identifies lines that represent the same purchasable unit. Two
// event lines for the same product merge only when the ticket type matches.
func (i Item) mergeKey() string {
	return i.ProductID.String() + "|" + i.TicketType
}

type ItemInput struct {
	ProductID       uuid.UUID       `validate:"required,uuid"                                          json:"product_id"`
	Title           string          `validate:"required"                                               json:"title"`
	Image           string          `                                                                  json:"image"`
	Price           decimal.Decimal `validate:"required"                                               json:"price"`
	ProductType     ProductType     `validate:"required,oneof=physical digital event appointment"      json:"product_type"`
	Quantity        int32           `validate:"gte=0"                                                  json:"quantity"`
	AppointmentDate string          `validate:"required_if=ProductType appointment"                    json:"appointment_date,omitempty"`
	AppointmentTime string          `validate:"required_if=ProductType appointment"                    json:"appointment_time,omitempty"`
	TicketType      string          `                                                                  json:"ticket_type,omitempty"`
}

// Cart keeps items in insertion order, which is also display order.
type Cart struct {
	Items []Item `json:"items"`
}

func (ct Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range ct.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (ct Cart) ItemCount() int32 {
	var count int32
	for _, item := range ct.Items {
		count += item.Quantity
	}
	return count
}

func (ct Cart) RequiresShipping() bool {
	for _, item := range ct.Items {
		if item.ProductType == ProductTypePhysical {
			return true
		}
	}
	return false
}

// Add appends or merges a line. Lines for the same product and ticket type
// merge into one with a combined quantity; appointment slots are unique, so
// an appointment always becomes its own line with quantity fixed at 1.
func (ct *Cart) Add(input ItemInput) Item {
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	if input.ProductType == ProductTypeAppointment {
		item := Item{
			ID:              uuid.New(),
			ProductID:       input.ProductID,
			Title:           input.Title,
			Image:           input.Image,
			Price:           input.Price,
			ProductType:     input.ProductType,
			Quantity:        1,
			AppointmentDate: input.AppointmentDate,
			AppointmentTime: input.AppointmentTime,
		}
		ct.Items = append(ct.Items, item)
		return item
	}

	key := Item{ProductID: input.ProductID, TicketType: input.TicketType}.mergeKey()
	for i, existing := range ct.Items {
		if existing.ProductType == ProductTypeAppointment {
			continue
		}
		if existing.mergeKey() == key {
			ct.Items[i].Quantity += quantity
			return ct.Items[i]
		}
	}

	item := Item{
		ID:          uuid.New(),
		ProductID:   input.ProductID,
		Title:       input.Title,
		Image:       input.Image,
		Price:       input.Price,
		ProductType: input.ProductType,
		Quantity:    quantity,
		TicketType:  input.TicketType,
	}
	ct.Items = append(ct.Items, item)
	return item
}

// UpdateQuantity sets a line's quantity. Quantities below 1 are rejected so a
// decrement from 1 never deletes the line by accident; appointment lines keep
// their fixed quantity of 1 and the call is a no-op.
func (ct *Cart) UpdateQuantity(itemID uuid.UUID, quantity int32) error {
	if quantity < 1 {
		return inErrors.ErrInvalidQuantity
	}
	for i, item := range ct.Items {
		if item.ID != itemID {
			continue
		}
		if item.ProductType == ProductTypeAppointment {
			return nil
		}
		ct.Items[i].Quantity = quantity
		return nil
	}
	return nil
}

// Remove is idempotent; a missing line id leaves the cart unchanged.
func (ct *Cart) Remove(itemID uuid.UUID) {
	for i, item := range ct.Items {
		if item.ID == itemID {
			ct.Items = append(ct.Items[:i], ct.Items[i+1:]...)
			return
		}
	}
}

func (ct *Cart) Clear() {
	ct.Items = nil
}
