package mcp

import (
	"context"
	"sync"
	"time"
)

// TransportState is the lifecycle state of a Transport (§3 "Transport
// state"). Equality ignores any error enclosed in Failed.
type TransportState int

const (
	StateDisconnected TransportState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateFailed
)

func (s TransportState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transport is the single-owner byte-framed connection a Client drives
// (§4.B). Implementations (stdio, SSE) serialize their own writes so that
// concurrent Send calls never interleave frames on the wire.
type Transport interface {
	// Start moves a Disconnected transport to Connected. It is not
	// idempotent: the stdio and SSE transports return an InvalidState error
	// when Start is called while they are not Disconnected.
	Start(ctx context.Context) error
	// Stop idempotently moves the transport to Disconnected, finishing the
	// inbound channel and releasing all resources.
	Stop() error
	// Inbound returns the single-consumer channel of decoded frame bytes.
	// It is closed on Stop or on unrecoverable error; Err reports which.
	Inbound() <-chan []byte
	// Err returns the terminal error that closed Inbound, if any.
	Err() error
	// Send writes one frame, respecting the optional per-call timeout.
	Send(ctx context.Context, frame []byte, timeout time.Duration) error
	// State returns the current transport state.
	State() TransportState
}

// BackoffShape selects the delay schedule a RetryPolicy applies between
// attempts (§4.E).
type BackoffShape int

const (
	BackoffConstant BackoffShape = iota
	BackoffLinear
	BackoffExponential
	BackoffCustom
)

// RetryPolicy configures §4.E's attempt/delay schedule. CustomDelay is
// consulted only when Backoff is BackoffCustom.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction in [0,1]
	Backoff     BackoffShape
	CustomDelay func(attempt int) time.Duration
}

// DefaultRetryPolicy matches the teacher's hand-rolled stdio retry loop
// (internal/process/supervisor.go MaxInitRetries/InitRetryBaseDelay),
// generalized to the full RetryPolicy shape.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Jitter:      0.1,
		Backoff:     BackoffExponential,
	}
}

// HealthCheckConfig optionally enables a periodic ping while Running
// (§3 "Transport configuration", §9 Open Question — wired per SPEC_FULL.md).
type HealthCheckConfig struct {
	Interval              time.Duration
	MaxReconnectAttempts  int
}

// TransportConfig is the fixed set of tunables from §3.
type TransportConfig struct {
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	MaxMessageSize int
	RetryPolicy    RetryPolicy
	HealthCheck    *HealthCheckConfig
}

// DefaultTransportConfig mirrors the teacher's defaults
// (DefaultTimeout = 30s, DefaultConnectTimeout = 30s, MaxSSEEventSize = 1MiB).
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ConnectTimeout: 30 * time.Second,
		SendTimeout:    30 * time.Second,
		MaxMessageSize: 1024 * 1024,
		RetryPolicy:    DefaultRetryPolicy(),
	}
}

// baseTransport factors the state/teardown bookkeeping shared by the
// stdio and SSE transports: a mutex-guarded state field, a closed-once
// inbound channel, and the terminal error slot.
type baseTransport struct {
	mu      sync.Mutex
	state   TransportState
	inbound chan []byte
	err     error
	closeCh chan struct{}
	closed  bool
}

func newBaseTransport() baseTransport {
	return baseTransport{
		inbound: make(chan []byte, 64),
		closeCh: make(chan struct{}),
	}
}

func (b *baseTransport) State() TransportState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *baseTransport) setState(s TransportState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *baseTransport) Inbound() <-chan []byte {
	return b.inbound
}

func (b *baseTransport) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// finish closes the inbound channel exactly once, recording err (nil on a
// clean stop) and moving to the terminal state it implies.
func (b *baseTransport) finish(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.err = err
	if err != nil {
		b.state = StateFailed
	} else {
		b.state = StateDisconnected
	}
	b.mu.Unlock()
	close(b.closeCh)
	close(b.inbound)
}

func (b *baseTransport) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *baseTransport) deliver(frame []byte) bool {
	select {
	case b.inbound <- frame:
		return true
	case <-b.closeCh:
		return false
	}
}
