package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/vendora/storefront/internal/common/constants"
)

var Tracer = otel.Tracer(constants.APP_CHECKOUT_SERVICE)
