package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// SSETransportConfig configures an SSETransport (§4.C "SSE transport").
type SSETransportConfig struct {
	URL            string
	Headers        map[string]string
	Client         *http.Client
	MaxMessageSize int
	RetryPolicy    RetryPolicy
}

// SSETransport implements Transport over HTTP+SSE: a long-lived GET stream
// delivers inbound frames, and each outbound frame is a separate POST to
// the endpoint URL the server announces in the stream's first "endpoint"
// event. Adapted from the teacher's streamable_http_transport.go, trimmed
// to the single legacy-SSE shape §4.C specifies (no protocol-version POST
// fallback loop — see DESIGN.md) and its sseScanner line parser reused
// verbatim for event framing.
type SSETransport struct {
	baseTransport
	cfg    SSETransportConfig
	client *http.Client
	logger Logger

	mu          sync.Mutex
	endpointURL string

	endpointOnce sync.Once
	endpointCh   chan struct{}

	streamCancel context.CancelFunc
	streamBody   io.ReadCloser
	wg           sync.WaitGroup
}

// NewSSETransport constructs a transport against the given config.
func NewSSETransport(cfg SSETransportConfig, logger Logger) *SSETransport {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if logger == nil {
		logger = noopLogger
	}
	return &SSETransport{
		baseTransport: newBaseTransport(),
		cfg:           cfg,
		client:        cfg.Client,
		logger:        logger,
		endpointCh:    make(chan struct{}),
	}
}

// Start opens the SSE GET stream and reports Connected as soon as the GET
// returns 200 (§4.C): endpoint discovery is orthogonal and handled lazily by
// Send, since a server that never sends a message has no reason to announce
// a POST endpoint before one is needed.
func (t *SSETransport) Start(ctx context.Context) error {
	if t.State() != StateDisconnected {
		return errInvalidState("sse transport already started")
	}
	t.setState(StateConnecting)

	streamCtx, cancel := context.WithCancel(context.Background())
	t.streamCancel = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.cfg.URL, nil)
	if err != nil {
		cancel()
		t.setState(StateFailed)
		return errConnectionFailed("build SSE request: " + err.Error())
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		t.setState(StateFailed)
		return errConnectionFailed("open SSE stream: " + err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		cancel()
		t.setState(StateFailed)
		return errConnectionFailed(fmt.Sprintf("SSE stream returned %s: %s", resp.Status, body))
	}
	t.streamBody = resp.Body

	t.wg.Add(1)
	go t.readLoop(resp.Body)

	t.setState(StateConnected)
	return nil
}

// readLoop consumes SSE events until the stream ends. An "endpoint" event
// resolves the POST URL and wakes anyone blocked in Send's awaitEndpoint; a
// "retry" field updates the send retry policy's base delay (§4.C); every
// "message" event is delivered as an inbound frame.
func (t *SSETransport) readLoop(body io.ReadCloser) {
	defer t.wg.Done()
	scanner := newSSEScanner(body, t.maxMessageSize())

	for {
		event, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				t.finish(nil)
			} else {
				t.finish(errConnectionFailed("SSE stream read error: " + err.Error()))
			}
			return
		}

		if event.Retry != "" {
			if ms, err := strconv.Atoi(event.Retry); err == nil && ms > 0 {
				t.mu.Lock()
				t.cfg.RetryPolicy.BaseDelay = time.Duration(ms) * time.Millisecond
				t.mu.Unlock()
			}
		}

		switch event.Event {
		case "endpoint":
			resolved, err := t.resolveEndpoint(string(event.Data))
			if err != nil {
				t.logger("mcp: malformed SSE endpoint event: %v", err)
				continue
			}
			t.mu.Lock()
			t.endpointURL = resolved
			t.mu.Unlock()
			t.endpointOnce.Do(func() { close(t.endpointCh) })

		case "", "message":
			if len(event.Data) == 0 {
				continue
			}
			if !t.deliver(append([]byte(nil), event.Data...)) {
				return
			}

		default:
			t.logger("mcp: ignoring SSE event type %q", event.Event)
		}
	}
}

func (t *SSETransport) resolveEndpoint(raw string) (string, error) {
	base, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", errConnectionFailed("parse base URL: " + err.Error())
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", errConnectionFailed("parse endpoint event data: " + err.Error())
	}
	return base.ResolveReference(ref).String(), nil
}

func (t *SSETransport) maxMessageSize() int {
	if t.cfg.MaxMessageSize > 0 {
		return t.cfg.MaxMessageSize
	}
	return 1024 * 1024
}

// Send POSTs one frame to the endpoint the server announces via the SSE
// stream's "endpoint" event, retrying per cfg.RetryPolicy on transport-level
// failures (§4.E, §4.C). The endpoint may not have arrived yet even though
// the transport is Connected, since connection and endpoint discovery are
// reported independently (§4.C); Send waits up to timeout for it and fails
// with Timeout rather than InvalidState if it never shows up.
func (t *SSETransport) Send(ctx context.Context, frame []byte, timeout time.Duration) error {
	if t.State() != StateConnected {
		return errInvalidState("sse transport is " + t.State().String())
	}

	endpoint, err := t.awaitEndpoint(ctx, timeout)
	if err != nil {
		return err
	}

	sendCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		sendCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	retryPolicy := t.cfg.RetryPolicy
	t.mu.Unlock()

	return WithRetry(sendCtx, "sse send", retryPolicy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(frame))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range t.cfg.Headers {
			req.Header.Set(k, v)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return errOperationFailed(fmt.Sprintf("POST %s: %s: %s", endpoint, resp.Status, body))
		}
		return nil
	})
}

// awaitEndpoint waits for the SSE stream's "endpoint" event to resolve the
// POST URL, up to timeout (zero means wait indefinitely for ctx). Returns
// immediately if the endpoint already arrived.
func (t *SSETransport) awaitEndpoint(ctx context.Context, timeout time.Duration) (string, error) {
	t.mu.Lock()
	endpoint := t.endpointURL
	t.mu.Unlock()
	if endpoint != "" {
		return endpoint, nil
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-t.endpointCh:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.endpointURL, nil
	case <-timeoutCh:
		return "", errTimeout("sse send: waiting for endpoint")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop cancels the GET stream and waits for the read goroutine to exit.
func (t *SSETransport) Stop() error {
	if t.isClosed() {
		return nil
	}
	t.setState(StateDisconnecting)
	if t.streamCancel != nil {
		t.streamCancel()
	}
	if t.streamBody != nil {
		_ = t.streamBody.Close()
	}
	t.wg.Wait()
	t.finish(nil)
	return nil
}

// sseEvent is one parsed Server-Sent Event.
type sseEvent struct {
	ID    string
	Event string
	Data  []byte
	Retry string
}

// sseScanner parses SSE events off a reader, adapted verbatim from the
// teacher's streamable_http_transport.go scanner.
type sseScanner struct {
	reader   *bufio.Reader
	maxSize  int
	currSize int
}

func newSSEScanner(r io.Reader, maxSize int) *sseScanner {
	return &sseScanner{reader: bufio.NewReader(r), maxSize: maxSize}
}

func (s *sseScanner) Next() (*sseEvent, error) {
	event := &sseEvent{}
	var dataLines [][]byte
	s.currSize = 0

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				event.Data = bytes.Join(dataLines, []byte("\n"))
				return event, nil
			}
			return nil, err
		}

		s.currSize += len(line)
		if s.maxSize > 0 && s.currSize > s.maxSize {
			return nil, errMessageTooLarge(s.maxSize)
		}

		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		if len(line) == 0 {
			if len(dataLines) > 0 || event.ID != "" || event.Event != "" || event.Retry != "" {
				event.Data = bytes.Join(dataLines, []byte("\n"))
				return event, nil
			}
			continue
		}

		if line[0] == ':' {
			continue
		}

		var field, value []byte
		if idx := bytes.IndexByte(line, ':'); idx == -1 {
			field = line
		} else {
			field = line[:idx]
			value = line[idx+1:]
			if len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
		}

		switch string(field) {
		case "id":
			event.ID = string(value)
		case "event":
			event.Event = string(value)
		case "data":
			dataLines = append(dataLines, value)
		case "retry":
			event.Retry = string(value)
		}
	}
}
