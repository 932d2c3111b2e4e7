package request

import (
	"github.com/vendora/storefront/cart/pkg/cart"
)

type AddCartItem struct {
	cart.ItemInput
}

type UpdateCartItem struct {
	Quantity int32 `validate:"required" json:"quantity"`
}
