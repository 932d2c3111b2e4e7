package payment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	closedAfter int32
	polls       atomic.Int32
}

func (h *fakeHandle) Closed() bool {
	return h.polls.Add(1) > h.closedAfter
}

type fakeVerifier struct {
	delay time.Duration
	resp  VerifyResponse
	err   error
	calls atomic.Int32
}

func (v *fakeVerifier) Verify(c context.Context, reference string) (VerifyResponse, error) {
	v.calls.Add(1)
	if v.delay > 0 {
		select {
		case <-time.After(v.delay):
		case <-c.Done():
			return VerifyResponse{}, c.Err()
		}
	}
	if v.err != nil {
		return VerifyResponse{}, v.err
	}
	return v.resp, nil
}

func confirmedResponse(reference string) VerifyResponse {
	return VerifyResponse{
		Success:   true,
		Reference: reference,
		Order: &VerifiedOrder{
			ID:          "b2f5e3cb-3f0e-4df0-b34d-0a0a39c5b33d",
			Reference:   reference,
			Status:      "paid",
			TotalAmount: decimal.RequireFromString("124.99"),
		},
	}
}

func TestWatcherConfirmsAfterWindowCloses(t *testing.T) {
	t.Parallel()

	handle := &fakeHandle{closedAfter: 3}
	verifier := &fakeVerifier{resp: confirmedResponse("ref-001")}

	var mu sync.Mutex
	states := []State{}
	watcher := NewWatcher(
		"ref-001",
		handle,
		verifier,
		time.Millisecond,
		time.Second,
		func(c context.Context, r Result) {
			mu.Lock()
			states = append(states, r.State)
			mu.Unlock()
		},
	)

	result := watcher.Watch(context.Background())
	require.Equal(t, StateConfirmed, result.State)
	require.NotNil(t, result.Order)
	assert.Equal(t, "ref-001", result.Order.Reference)
	assert.EqualValues(t, 1, verifier.calls.Load())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateAwaitingClose, StateVerifying, StateConfirmed}, states)
}

func TestWatcherVerifiesExactlyOnceWithSlowVerifier(t *testing.T) {
	t.Parallel()

	handle := &fakeHandle{closedAfter: 0}
	verifier := &fakeVerifier{
		delay: 50 * time.Millisecond,
		resp:  confirmedResponse("ref-002"),
	}
	watcher := NewWatcher("ref-002", handle, verifier, time.Millisecond, time.Second, nil)

	result := watcher.Watch(context.Background())
	require.Equal(t, StateConfirmed, result.State)
	assert.EqualValues(t, 1, verifier.calls.Load(), "slow verification must not trigger a second verify")
}

func TestWatcherFailedVerificationCarriesReference(t *testing.T) {
	t.Parallel()

	handle := &fakeHandle{closedAfter: 0}
	verifier := &fakeVerifier{
		resp: VerifyResponse{
			Success:   false,
			Reference: "ref-003",
			Error:     "card declined",
		},
	}
	watcher := NewWatcher("ref-003", handle, verifier, time.Millisecond, time.Second, nil)

	result := watcher.Watch(context.Background())
	require.Equal(t, StateFailed, result.State)
	assert.Contains(t, result.Message, "card declined")
	assert.Contains(t, result.Message, "ref-003")
	assert.Nil(t, result.Order)
}

func TestWatcherVerifyTimeoutFails(t *testing.T) {
	t.Parallel()

	handle := &fakeHandle{closedAfter: 0}
	verifier := &fakeVerifier{delay: time.Second, resp: confirmedResponse("ref-004")}
	watcher := NewWatcher(
		"ref-004",
		handle,
		verifier,
		time.Millisecond,
		20*time.Millisecond,
		nil,
	)

	result := watcher.Watch(context.Background())
	require.Equal(t, StateFailed, result.State)
	assert.Contains(t, result.Message, "timed out")
	assert.Contains(t, result.Message, "ref-004")
	assert.EqualValues(t, 1, verifier.calls.Load())
}

type neverClosedHandle struct{}

func (neverClosedHandle) Closed() bool { return false }

func TestWatcherCancellationFailsWithoutVerify(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{resp: confirmedResponse("ref-005")}
	watcher := NewWatcher(
		"ref-005",
		neverClosedHandle{},
		verifier,
		time.Millisecond,
		time.Second,
		nil,
	)

	c, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result := watcher.Watch(c)
	require.Equal(t, StateFailed, result.State)
	assert.Contains(t, result.Message, "ref-005")
	assert.EqualValues(t, 0, verifier.calls.Load())
}
