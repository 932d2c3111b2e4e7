package constants

const (
	APP_CART_SERVICE     = "cart-service"
	APP_CHECKOUT_SERVICE = "checkout-service"
	APP_ORDER_SERVICE    = "order-service"
	APP_MAIN_STOREFRONT  = "main storefront"
	AUDIENCE_SHOPPER     = "audience-shopper"
)
