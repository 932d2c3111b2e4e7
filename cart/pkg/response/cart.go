package response

import (
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront/cart/pkg/cart"
)

type Cart struct {
	Items     []cart.Item     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int32           `json:"item_count"`
}

func NewCart(ct cart.Cart) Cart {
	items := ct.Items
	if items == nil {
		items = []cart.Item{}
	}
	return Cart{
		Items:     items,
		Total:     ct.Total(),
		ItemCount: ct.ItemCount(),
	}
}
