package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger swaps the no-op logger for one that writes somewhere real.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSamplingHandler installs the handler invoked for server-initiated
// sampling/createMessage requests and advertises the capability during
// initialize (§4.H "Server request").
func WithSamplingHandler(h SamplingHandler) Option {
	return func(c *Client) {
		c.samplingHandler = h
		c.clientCaps.HasSamplingHandler = h != nil
	}
}

// WithRootsHandler installs the handler invoked for server-initiated
// roots/list requests.
func WithRootsHandler(h RootsHandler) Option {
	return func(c *Client) {
		c.rootsHandler = h
		c.clientCaps.HasRootsHandler = h != nil
	}
}

// WithRootsListChanged advertises roots.listChanged support.
func WithRootsListChanged() Option {
	return func(c *Client) { c.clientCaps.RootsListChanged = true }
}

// WithProgressHandler installs the handler invoked for inbound progress
// notifications whose token is bound to one of the caller's requests.
func WithProgressHandler(h ProgressHandler) Option {
	return func(c *Client) { c.progressHandler = h }
}

// WithTransportConfig overrides the default timeouts/retry policy.
func WithTransportConfig(cfg TransportConfig) Option {
	return func(c *Client) { c.config = cfg }
}

// WithProtocolVersion overrides the single protocol version the client
// advertises and requires an exact match on (§6).
func WithProtocolVersion(v string) Option {
	return func(c *Client) { c.protocolVersion = v }
}

// ProtocolVersion is the version this client advertises during initialize.
// The client is bound to exactly this one version and fails on any
// mismatch; it does not fall back to other candidate versions (see
// DESIGN.md).
const ProtocolVersion = "2025-06-18"

// Client is the public surface of §4.I: a single-owner peer over one
// Transport, presenting the session/registry/notification machinery as a
// small set of blocking calls plus a notification stream.
type Client struct {
	transport Transport
	registry  *Registry
	session   *session
	bus       *notificationBus

	clientCaps      ClientCapabilities
	samplingHandler SamplingHandler
	rootsHandler    RootsHandler
	progressHandler ProgressHandler
	logger          Logger

	config          TransportConfig
	protocolVersion string
	clientInfo      ServerInfo

	wg           sync.WaitGroup
	closeOnce    sync.Once
	dispatchStop chan struct{}
	healthCancel context.CancelFunc
}

// NewClient constructs a Client bound to transport, not yet connected.
// clientInfo identifies this client in the initialize handshake.
func NewClient(transport Transport, clientInfo ServerInfo, opts ...Option) *Client {
	c := &Client{
		transport:       transport,
		registry:        NewRegistry(),
		bus:             newNotificationBus(),
		logger:          noopLogger,
		config:          DefaultTransportConfig(),
		protocolVersion: ProtocolVersion,
		clientInfo:      clientInfo,
		dispatchStop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = newSession(c.clientCaps)
	return c
}

// Connect drives §4.G's handshake: start the transport, run the dispatcher,
// send initialize with the reserved id, and on a matching protocol version
// announce notifications/initialized. A failure at any step fails the
// session and leaves the transport stopped.
func (c *Client) Connect(ctx context.Context) error {
	if !c.session.beginConnect() {
		return errInvalidState("connect called while session is " + c.session.State().String())
	}

	if err := c.transport.Start(ctx); err != nil {
		c.session.fail(err)
		return err
	}

	c.wg.Add(1)
	go c.dispatchLoop()

	if err := c.session.beginInitializing(); err != nil {
		c.teardown(err)
		return err
	}

	result, err := c.sendInitialize(ctx)
	if err != nil {
		c.teardown(err)
		return err
	}

	if err := c.session.completeInitialize(result.ProtocolVersion, c.protocolVersion, result.Capabilities, result.ServerInfo); err != nil {
		c.teardown(err)
		return err
	}

	if err := c.SendNotification(ctx, NotifyInitialized, EmptyParams{}); err != nil {
		c.teardown(err)
		return err
	}
	c.startHealthCheck()
	return nil
}

// startHealthCheck launches the periodic liveness ping configured by
// TransportConfig.HealthCheck (§3 "Transport configuration", SPEC_FULL.md
// SUPPLEMENTED FEATURES §1). A no-op unless HealthCheck is set.
func (c *Client) startHealthCheck() {
	hc := c.config.HealthCheck
	if hc == nil || hc.Interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.healthCancel = cancel
	c.wg.Add(1)
	go c.healthCheckLoop(ctx, *hc)
}

// healthCheckLoop pings at hc.Interval while the session is alive. After
// hc.MaxReconnectAttempts consecutive failures it fails the session and
// stops the transport; Transport instances are single-use (§4.D/§4.C
// Teardown), so recovering means constructing a new Client rather than
// restarting this one in place, matching Close's "construct a new one
// instead" contract.
func (c *Client) healthCheckLoop(ctx context.Context, hc HealthCheckConfig) {
	defer c.wg.Done()

	ticker := time.NewTicker(hc.Interval)
	defer ticker.Stop()

	maxFailures := hc.MaxReconnectAttempts
	if maxFailures <= 0 {
		maxFailures = 1
	}
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.config.SendTimeout)
			err := Ping(pingCtx, c)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			c.logger("mcp: health check ping failed (%d/%d): %v", failures, maxFailures, err)
			if failures >= maxFailures {
				c.logger("mcp: health check exhausted after %d failures, failing session", failures)
				healthErr := fmt.Errorf("health check: %w", err)
				c.session.fail(healthErr)
				c.registry.FailAll(healthErr)
				_ = c.transport.Stop()
				return
			}
		}
	}
}

func (c *Client) sendInitialize(ctx context.Context) (InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: c.protocolVersion,
		Capabilities:    c.clientCaps,
		ClientInfo:      c.clientInfo,
	}
	return SendRequest[InitializeResult](ctx, c, MethodInitialize, params)
}

func (c *Client) teardown(cause error) {
	c.session.fail(cause)
	c.registry.FailAll(cause)
	_ = c.transport.Stop()
}

// Disconnect idempotently tears the session down without failing it:
// pending requests are cancelled, the transport is stopped, and a session
// that has not failed returns to Disconnected. Stop leaves the stdio and
// SSE transports' inbound channel permanently closed, so with those
// transports a later Connect on the same Client returns an error instead
// of reaching Running.
func (c *Client) Disconnect() error {
	if c.healthCancel != nil {
		c.healthCancel()
	}
	c.registry.CancelAll()
	err := c.transport.Stop()
	c.session.disconnect()
	return err
}

// Close permanently shuts the client down: the dispatcher goroutine is
// joined and the notification bus stopped. A closed Client cannot Connect
// again; construct a new one instead.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.healthCancel != nil {
			c.healthCancel()
		}
		c.registry.CancelAll()
		err = c.transport.Stop()
		c.session.disconnect()
		c.wg.Wait()
		c.bus.Close()
	})
	return err
}

// State reports the session's current lifecycle state.
func (c *Client) State() SessionState { return c.session.State() }

// ServerCapabilities returns the capabilities negotiated at initialize,
// valid only once State is Running.
func (c *Client) ServerCapabilities() (ServerCapabilities, bool) { return c.session.ServerCapabilities() }

// ServerInfo returns the peer's advertised name/version.
func (c *Client) ServerInfo() ServerInfo { return c.session.ServerInfo() }

// ClearStale is a no-op hook kept to satisfy §4.I's public surface; see
// Registry.ClearStale's doc comment for why there is nothing to clear.
func (c *Client) ClearStale() { c.registry.ClearStale() }

// RequestState reports the lifecycle state of the request registered under
// id (§4.I "state_of"). The bool is false once id is no longer tracked,
// whether because it never existed or because it already reached a
// terminal transition and was removed from the registry.
func (c *Client) RequestState(id RequestID) (RequestState, bool) {
	state, ok := c.registry.State(id)
	if !ok {
		return 0, false
	}
	return state.toRequestState(), true
}

// Notifications returns the channel notifications are fanned out on.
// Prefer Subscribe for long-lived handlers that must not miss events to
// channel-buffer exhaustion.
func (c *Client) Notifications() <-chan NotificationEvent { return c.bus.Channel() }

// Subscribe registers h for every fanned-out notification and returns an
// unsubscribe function.
func (c *Client) Subscribe(h NotificationHandler) func() { return c.bus.Subscribe(h) }

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}
	return raw, nil
}

// sendRequest registers id, writes the frame, and blocks for the matching
// response or context cancellation/timeout, returning the decoded result
// (as produced by decode) or the error the registry's outcome carries
// (§4.F, §4.I "send_request").
func (c *Client) sendRequest(ctx context.Context, method string, id RequestID, params any, decode func(json.RawMessage) (any, error)) (any, error) {
	if err := c.session.canSendRequest(method); err != nil {
		return nil, err
	}

	raw, err := encodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %s: %w", method, err)
	}

	pr, err := c.registry.Register(id, method, c.config.SendTimeout, decode, nil)
	if err != nil {
		return nil, err
	}

	frame, err := EncodeRequest(Request{ID: id, Method: method, Params: raw})
	if err != nil {
		_ = c.registry.Fail(id, err)
		return nil, err
	}

	if err := c.transport.Send(ctx, frame, c.config.SendTimeout); err != nil {
		_ = c.registry.Fail(id, err)
		return nil, err
	}

	select {
	case out := <-pr.done:
		if out.err != nil {
			return nil, out.err
		}
		if out.rpcErr != nil {
			return nil, out.rpcErr
		}
		return out.value, nil
	case <-ctx.Done():
		_ = c.registry.Cancel(id)
		return nil, ctx.Err()
	}
}

// SendRequest is the generic entry point for §4.I's send_request: R is the
// caller's declared result type. Go methods cannot carry their own type
// parameters, so this is a package-level function taking *Client rather
// than a method (see DESIGN.md).
func SendRequest[R any](ctx context.Context, c *Client, method RequestMethod, params any) (R, error) {
	var zero R
	id := NewStringID()
	if method == MethodInitialize {
		id = ReservedInitializeID
	}
	decode := func(raw json.RawMessage) (any, error) {
		var r R
		if len(raw) == 0 {
			return r, nil
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return r, err
		}
		return r, nil
	}
	val, err := c.sendRequest(ctx, string(method), id, params, decode)
	if err != nil {
		return zero, err
	}
	out, ok := val.(R)
	if !ok {
		return zero, fmt.Errorf("mcp: decoded result for %s has unexpected type %T", method, val)
	}
	return out, nil
}

// SendNotification writes a one-way frame, gated the same way requests are
// (§4.G "Send gates").
func (c *Client) SendNotification(ctx context.Context, method NotificationMethod, params any) error {
	if err := c.session.canSendNotification(string(method)); err != nil {
		return err
	}
	raw, err := encodeParams(params)
	if err != nil {
		return fmt.Errorf("encode params for %s: %w", method, err)
	}
	frame, err := EncodeNotification(Notification{Method: string(method), Params: raw})
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, frame, c.config.SendTimeout)
}

// CancelRequest transitions a pending request to Cancelled and announces
// notifications/cancelled to the peer (§4.F "cancel").
func (c *Client) CancelRequest(ctx context.Context, id RequestID, reason string) error {
	if err := c.registry.Cancel(id); err != nil {
		return err
	}
	return c.SendNotification(ctx, NotifyCancelled, CancelledParams{RequestID: id, Reason: reason})
}
