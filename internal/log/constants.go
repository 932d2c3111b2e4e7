package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyToken              = "token"
	KeyEmail              = "email"
	KeyConfig             = "config"
	KeySessionID          = "sessionId"
	KeyCart               = "cart"
	KeyCartItems          = "cartItems"
	KeyCartItemID         = "cartItemId"
	KeyItemCount          = "itemCount"
	KeyCartTotal          = "cartTotal"
	KeyProductID          = "productId"
	KeyProductType        = "productType"
	KeyQuantity           = "quantity"
	KeyDraft              = "orderDraft"
	KeyTotalAmount        = "totalAmount"
	KeyReference          = "paymentReference"
	KeyAuthorizationURL   = "authorizationUrl"
	KeyWatcherState       = "watcherState"
	KeyOrderID            = "orderId"
	KeyOrderItems         = "orderItems"
	KeyCacheKey           = "cacheKey"
	KeyDbURL              = "dbUrl"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIP          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyPathValues         = "pathValues"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
)
