package repository

import (
	"github.com/vendora/storefront/order/pkg/response"
)

func (o Order) ResponseOrder(items []OrderItem) response.Order {
	respItems := make([]response.OrderItem, 0, len(items))
	for _, i := range items {
		respItems = append(respItems, response.OrderItem{
			ProductID:       i.ProductID.String(),
			Title:           i.Title,
			Price:           DecimalFromNumeric(i.Price),
			Quantity:        i.Quantity,
			Subtotal:        DecimalFromNumeric(i.Subtotal),
			ProductType:     i.ProductType,
			AppointmentDate: i.AppointmentDate,
			AppointmentTime: i.AppointmentTime,
			TicketType:      i.TicketType,
		})
	}
	return response.Order{
		ID:            o.ID.String(),
		Reference:     o.Reference,
		Status:        o.Status,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   DecimalFromNumeric(o.TotalAmount),
		Items:         respItems,
		CreatedAt:     o.CreatedAt.Time,
	}
}
