package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vendora/storefront/checkout/internal/otel"
	"github.com/vendora/storefront/internal/log"
)

type State string

const (
	StateAwaitingClose State = "awaiting_close"
	StateVerifying     State = "verifying"
	StateConfirmed     State = "confirmed"
	StateFailed        State = "failed"
)

type Verifier interface {
	Verify(c context.Context, reference string) (VerifyResponse, error)
}

// Result is one watcher transition. Failure messages always carry the payment
// reference so the shopper has something to quote at support.
type Result struct {
	State     State          `json:"state"`
	Reference string         `json:"reference"`
	Message   string         `json:"message,omitempty"`
	Order     *VerifiedOrder `json:"order,omitempty"`
	Vendor    *Vendor        `json:"vendor,omitempty"`
}

// Watcher waits for the payment window to close, then verifies the payment
// exactly once. The ticker stops before the verify call goes out, so however
// long verification takes there is never a second one for the same reference.
type Watcher struct {
	reference     string
	handle        Handle
	verifier      Verifier
	pollInterval  time.Duration
	verifyTimeout time.Duration
	onTransition  func(c context.Context, r Result)
}

func NewWatcher(
	reference string,
	handle Handle,
	verifier Verifier,
	pollInterval time.Duration,
	verifyTimeout time.Duration,
	onTransition func(c context.Context, r Result),
) *Watcher {
	return &Watcher{
		reference:     reference,
		handle:        handle,
		verifier:      verifier,
		pollInterval:  pollInterval,
		verifyTimeout: verifyTimeout,
		onTransition:  onTransition,
	}
}

func (w *Watcher) transition(c context.Context, r Result) Result {
	zerolog.Ctx(c).
		Info().
		Str(log.KeyTag, "Watcher transition").
		Str(log.KeyReference, r.Reference).
		Str(log.KeyWatcherState, string(r.State)).
		Msg(r.Message)
	if w.onTransition != nil {
		w.onTransition(c, r)
	}
	return r
}

// Watch blocks until the payment reaches a terminal state and returns it.
// There is deliberately no deadline on the waiting phase; the shopper may sit
// in the hosted checkout as long as they like.
func (w *Watcher) Watch(c context.Context) Result {
	c, span := otel.Tracer.Start(c, "Watcher Watch")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Watcher Watch").
		Str(log.KeyReference, w.reference).
		Logger()
	c = logger.WithContext(c)

	w.transition(c, Result{State: StateAwaitingClose, Reference: w.reference})

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Done():
			return w.transition(c, Result{
				State:     StateFailed,
				Reference: w.reference,
				Message: fmt.Sprintf(
					"checkout interrupted before payment could be verified, contact support with reference %s",
					w.reference,
				),
			})
		case <-ticker.C:
			if !w.handle.Closed() {
				continue
			}
			ticker.Stop()
			w.transition(c, Result{State: StateVerifying, Reference: w.reference})
			return w.verify(c)
		}
	}
}

func (w *Watcher) verify(c context.Context) Result {
	vc, cancel := context.WithTimeout(c, w.verifyTimeout)
	defer cancel()

	resp, err := w.verifier.Verify(vc, w.reference)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return w.transition(c, Result{
				State:     StateFailed,
				Reference: w.reference,
				Message: fmt.Sprintf(
					"payment verification timed out, contact support with reference %s",
					w.reference,
				),
			})
		}
		return w.transition(c, Result{
			State:     StateFailed,
			Reference: w.reference,
			Message: fmt.Sprintf(
				"could not verify payment with reference %s, please try again",
				w.reference,
			),
		})
	}

	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "payment was not successful"
		}
		return w.transition(c, Result{
			State:     StateFailed,
			Reference: w.reference,
			Message:   fmt.Sprintf("%s (reference %s)", message, w.reference),
			Vendor:    resp.Vendor,
		})
	}

	return w.transition(c, Result{
		State:     StateConfirmed,
		Reference: w.reference,
		Order:     resp.Order,
		Vendor:    resp.Vendor,
	})
}
