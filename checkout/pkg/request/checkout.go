package request

type ShippingAddress struct {
	Line1      string `validate:"required" json:"line1"`
	Line2      string `                    json:"line2"`
	City       string `validate:"required" json:"city"`
	State      string `validate:"required" json:"state"`
	PostalCode string `validate:"required" json:"postal_code"`
	Country    string `validate:"required" json:"country"`
}

// Pay carries what the browser learned when it tried to open the payment
// window; a blocked popup forces the full-page redirect fallback.
type Pay struct {
	PopupBlocked bool `json:"popup_blocked"`
}

type SubmitCheckout struct {
	Email           string           `validate:"required,email" json:"email"`
	FirstName       string           `validate:"required"       json:"first_name"`
	LastName        string           `validate:"required"       json:"last_name"`
	Phone           string           `validate:"required"       json:"phone"`
	ShippingAddress *ShippingAddress `validate:"omitempty"      json:"shipping_address"`
}
