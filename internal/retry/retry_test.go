package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpStatusErr int

func (e httpStatusErr) Error() string   { return fmt.Sprintf("http status %d", int(e)) }
func (e httpStatusErr) HTTPStatus() int { return int(e) }

type rpcCodeErr int

func (e rpcCodeErr) Error() string { return fmt.Sprintf("rpc code %d", int(e)) }
func (e rpcCodeErr) RPCCode() int  { return int(e) }

func TestClassify_ExplicitMarkers(t *testing.T) {
	transient := Classify(Transient(errors.New("rpc timed out")))
	assert.Equal(t, ClassTransient, transient.Class)
	assert.Equal(t, "explicit_transient", transient.Reason)

	terminal := Classify(Terminal(errors.New("invalid params")))
	assert.Equal(t, ClassTerminal, terminal.Class)
	assert.Equal(t, "explicit_terminal", terminal.Reason)

	assert.Nil(t, Transient(nil))
	assert.Nil(t, Terminal(nil))
}

func TestClassify_RepresentativeErrors(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		expectedClass Class
	}{
		{"nil", nil, ClassTerminal},
		{"context deadline transient", context.DeadlineExceeded, ClassTransient},
		{"context canceled terminal", fmt.Errorf("wrap: %w", context.Canceled), ClassTerminal},
		{"http 429 transient", fmt.Errorf("scan/event: %w", httpStatusErr(429)), ClassTransient},
		{"http 503 transient", httpStatusErr(503), ClassTransient},
		{"http 404 terminal", httpStatusErr(404), ClassTerminal},
		{"http 501 terminal", httpStatusErr(501), ClassTerminal},
		{"jsonrpc server transient", rpcCodeErr(-32603), ClassTransient},
		{"jsonrpc invalid params terminal", rpcCodeErr(-32602), ClassTerminal},
		{"connection reset transient", errors.New("read: connection reset by peer"), ClassTransient},
		{"not found terminal", errors.New("event not found"), ClassTerminal},
		{"unknown defaults terminal", errors.New("unexpected failure"), ClassTerminal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedClass, Classify(tc.err).Class)
		})
	}
}

func noSleep(recorded *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	var sleeps []time.Duration
	var retried []int
	p := Policy{
		MaxAttempts:    5,
		BackoffInitial: 100 * time.Millisecond,
		BackoffMax:     300 * time.Millisecond,
		OnRetry:        func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) },
		sleepFn:        noSleep(&sleeps),
	}

	calls := 0
	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls < 4 {
			return Transient(errors.New("flaky"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retried)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, sleeps)
}

func TestDo_StopsOnTerminal(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	err := Do(context.Background(), Policy{sleepFn: noSleep(&sleeps)}, func(context.Context) error {
		calls++
		return Terminal(errors.New("bad request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, sleepFn: noSleep(&sleeps)}, func(context.Context) error {
		calls++
		return httpStatusErr(502)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeps, 2)
	var status httpStatusErr
	assert.ErrorAs(t, err, &status)
}

func TestDo_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, BackoffInitial: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("flaky"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay_Caps(t *testing.T) {
	p := Policy{BackoffInitial: time.Second, BackoffMax: 5 * time.Second}
	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
	assert.Equal(t, 5*time.Second, p.delay(4))
	assert.Equal(t, 5*time.Second, p.delay(10))

	assert.Equal(t, defaultBackoffInitial, Policy{}.delay(1))
}
