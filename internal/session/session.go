// Package session is the durable storage scoped to one shopper session. The
// cart and the pending order draft live here as JSON values, keyed per
// session, and survive page navigation for as long as the session does.
package session

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("session key not found")

const (
	KeyCart        = "cart"
	KeyOrderDraft  = "checkout:draft"
	KeyWindowState = "checkout:window"
	KeyCheckout    = "checkout:state"
)

type Store interface {
	Get(c context.Context, sessionID string, key string) ([]byte, error)
	Set(c context.Context, sessionID string, key string, value []byte) error
	Delete(c context.Context, sessionID string, key string) error
}
