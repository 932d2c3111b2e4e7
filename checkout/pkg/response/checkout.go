package response

import (
	"time"

	"github.com/vendora/storefront/checkout/internal/draft"
	"github.com/vendora/storefront/checkout/internal/payment"
)

type Draft struct {
	Customer         draft.Customer `json:"customer"`
	ShippingAddress  *draft.Address `json:"shipping_address"`
	Items            []draft.Line   `json:"items"`
	TotalAmount      string         `json:"total_amount"`
	RequiresShipping bool           `json:"requires_shipping"`
	CreatedAt        time.Time      `json:"created_at"`
}

func NewDraft(d draft.OrderDraft) Draft {
	items := d.Lines
	if items == nil {
		items = []draft.Line{}
	}
	return Draft{
		Customer:         d.Customer,
		ShippingAddress:  d.ShippingAddress,
		Items:            items,
		TotalAmount:      d.TotalAmount.String(),
		RequiresShipping: d.RequiresShipping,
		CreatedAt:        d.CreatedAt,
	}
}

type Checkout struct {
	State            payment.State          `json:"state"`
	Reference        string                 `json:"reference,omitempty"`
	AuthorizationURL string                 `json:"authorization_url,omitempty"`
	Mode             payment.Mode           `json:"mode,omitempty"`
	Message          string                 `json:"message,omitempty"`
	Order            *payment.VerifiedOrder `json:"order,omitempty"`
	Vendor           *payment.Vendor        `json:"vendor,omitempty"`
}

func NewCheckout(state payment.CheckoutState) Checkout {
	return Checkout{
		State:            state.State,
		Reference:        state.Reference,
		AuthorizationURL: state.AuthorizationURL,
		Mode:             state.Mode,
		Message:          state.Message,
		Order:            state.Order,
		Vendor:           state.Vendor,
	}
}
