package response

import (
	"time"

	"github.com/shopspring/decimal"
)

type InitializePayment struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type OrderItem struct {
	ProductID       string          `json:"product_id"`
	Title           string          `json:"title"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int32           `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ProductType     string          `json:"product_type"`
	AppointmentDate string          `json:"appointment_date,omitempty"`
	AppointmentTime string          `json:"appointment_time,omitempty"`
	TicketType      string          `json:"ticket_type,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type VerifyPayment struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Order     *Order `json:"order,omitempty"`
	Error     string `json:"error,omitempty"`
}
