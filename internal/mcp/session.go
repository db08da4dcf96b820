package mcp

import (
	"encoding/json"
	"fmt"
	"sync"
)

// SessionState is the connection lifecycle of §3 "Session state" /
// §4.G. Transitions are monotonic except Failed, which is terminal.
type SessionState int

const (
	SessionDisconnected SessionState = iota
	SessionConnecting
	SessionInitializing
	SessionRunning
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionDisconnected:
		return "disconnected"
	case SessionConnecting:
		return "connecting"
	case SessionInitializing:
		return "initializing"
	case SessionRunning:
		return "running"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// session owns the monotonic state machine of §4.G. It is guarded by its
// own mutex so the dispatcher and the public surface can both observe and
// drive it without racing (§5 "Scheduling model").
type session struct {
	mu                 sync.Mutex
	state              SessionState
	serverCapabilities ServerCapabilities
	serverInfo         ServerInfo
	clientCapabilities ClientCapabilities
	failure            error
}

func newSession(clientCaps ClientCapabilities) *session {
	return &session{state: SessionDisconnected, clientCapabilities: clientCaps}
}

func (s *session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

func (s *session) ServerCapabilities() (ServerCapabilities, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverCapabilities, s.state == SessionRunning
}

func (s *session) ServerInfo() ServerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverInfo
}

func (s *session) ClientCapabilities() ClientCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientCapabilities
}

// beginConnect moves Disconnected -> Connecting. Per §4.G "Attempting
// connect() while not Disconnected returns immediately without transition",
// it reports ok=false rather than erroring when already past Disconnected.
func (s *session) beginConnect() (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionDisconnected {
		return false
	}
	s.state = SessionConnecting
	return true
}

// beginInitializing moves Connecting -> Initializing.
func (s *session) beginInitializing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionConnecting {
		return fmt.Errorf("%w: cannot initialize from state %s", ErrNotConnected, s.state)
	}
	s.state = SessionInitializing
	return nil
}

// completeInitialize moves Initializing -> Running(capabilities) once the
// server's protocolVersion matches ours; a mismatch fails the session.
func (s *session) completeInitialize(negotiated, ours string, caps json.RawMessage, info ServerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInitializing {
		return fmt.Errorf("%w: cannot complete initialize from state %s", ErrNotConnected, s.state)
	}
	if negotiated != ours {
		s.state = SessionFailed
		s.failure = unsupportedVersion(fmt.Sprintf("server offered %q, client requires %q", negotiated, ours))
		return s.failure
	}
	s.state = SessionRunning
	s.serverCapabilities = parseServerCapabilities(caps)
	s.serverInfo = info
	return nil
}

// fail moves any non-Disconnected state to Failed(err) (§4.G "any except
// Disconnected | fatal transport failure | Failed(err)"). Returns false,
// without a transition, if the session is Disconnected or already Failed,
// so callers only tear down once.
func (s *session) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionFailed || s.state == SessionDisconnected {
		return false
	}
	s.state = SessionFailed
	s.failure = err
	return true
}

// disconnect moves a session that has not failed back to Disconnected,
// allowing a later reconnect; per §3 this is the only path back out of a
// live session (Failed is terminal unless the instance is reconstructed).
func (s *session) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionFailed {
		return
	}
	s.state = SessionDisconnected
	s.serverCapabilities = ServerCapabilities{}
	s.serverInfo = ServerInfo{}
	s.failure = nil
}

// canSendRequest enforces §4.G's "Send gates": Initializing permits only
// initialize, Running permits any client request.
func (s *session) canSendRequest(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case SessionInitializing:
		if method != string(MethodInitialize) {
			return fmt.Errorf("%w: only initialize may be sent while initializing", ErrNotConnected)
		}
		return nil
	case SessionRunning:
		return nil
	default:
		return fmt.Errorf("%w: session is %s", ErrNotConnected, s.state)
	}
}

// canSendNotification enforces the notification half of the same gate.
func (s *session) canSendNotification(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case SessionInitializing:
		if method != string(NotifyInitialized) {
			return fmt.Errorf("%w: only notifications/initialized may be sent while initializing", ErrNotConnected)
		}
		return nil
	case SessionRunning:
		return nil
	default:
		return fmt.Errorf("%w: session is %s", ErrNotConnected, s.state)
	}
}
