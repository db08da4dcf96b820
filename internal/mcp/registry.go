package mcp

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// pendingState is a PendingRequest's lifecycle (§3 "Pending request").
type pendingState int

const (
	pendingPending pendingState = iota
	pendingCompleted
	pendingCancelled
	pendingFailed
)

// RequestState is the public view of a pending request's lifecycle, the
// result of §4.I's state_of(id) (one of Pending/Completed/Cancelled/Failed).
type RequestState int

const (
	RequestPending RequestState = iota
	RequestCompleted
	RequestCancelled
	RequestFailed
)

func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestCompleted:
		return "completed"
	case RequestCancelled:
		return "cancelled"
	case RequestFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s pendingState) toRequestState() RequestState {
	switch s {
	case pendingCompleted:
		return RequestCompleted
	case pendingCancelled:
		return RequestCancelled
	case pendingFailed:
		return RequestFailed
	default:
		return RequestPending
	}
}

// outcome is what a pending request's one-shot channel eventually carries:
// either a decoded result, a server RPCError, or a local error (timeout,
// cancellation, decode failure).
type outcome struct {
	value  any
	rpcErr *RPCError
	err    error
}

// pendingRequest is the registry's per-id bookkeeping (§3, §4.F). decode
// is supplied by the caller of Register so Complete can decode result into
// the caller's declared type without the registry knowing it.
type pendingRequest struct {
	id            RequestID
	method        string
	progressToken ProgressToken
	decode        func(json.RawMessage) (any, error)

	mu    sync.Mutex
	state pendingState
	done  chan outcome
	timer *time.Timer
}

// stopTimer cancels the timeout timer; safe to call multiple times.
func (pr *pendingRequest) stopTimer() {
	if pr.timer != nil {
		pr.timer.Stop()
	}
}

// Registry is the pending-request correlator of §4.F: a map from
// RequestID to its pendingRequest, with duplicate/reserved-id invariants
// enforced on Register.
type Registry struct {
	mu       sync.Mutex
	entries  map[RequestID]*pendingRequest
	progress map[ProgressToken]RequestID
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[RequestID]*pendingRequest),
		progress: make(map[ProgressToken]RequestID),
	}
}

// Register enforces the id invariants of §4.F ("Duplicate ids", "Reserved
// id") and inserts a new pendingPending entry whose timer fires fail(Timeout)
// after timeout elapses. onTimeout is invoked exactly once, off the
// registry's lock, if the timer fires before a terminal transition.
func (r *Registry) Register(id RequestID, method string, timeout time.Duration, decode func(json.RawMessage) (any, error), onTimeout func()) (*pendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id.Equal(ReservedInitializeID) && method != string(MethodInitialize) {
		return nil, errReusedRequestID(id)
	}
	if !id.Equal(ReservedInitializeID) && method == string(MethodInitialize) {
		// initialize must use the reserved id; anything else is a caller bug
		// surfaced the same way as a reuse violation.
		return nil, errReusedRequestID(id)
	}
	if _, exists := r.entries[id]; exists {
		return nil, errDuplicateRequestID(id)
	}

	pr := &pendingRequest{
		id:     id,
		method: method,
		decode: decode,
		state:  pendingPending,
		done:   make(chan outcome, 1),
	}
	if timeout > 0 {
		pr.timer = time.AfterFunc(timeout, func() {
			if pr.fail(errTimeout("id: " + id.String() + " method: " + method)) {
				r.remove(id)
				if onTimeout != nil {
					onTimeout()
				}
			}
		})
	}
	r.entries[id] = pr
	return pr, nil
}

// RegisterProgressToken binds a progress token to an in-flight request id,
// unless the token is already bound (§3 "Progress registration").
func (r *Registry) RegisterProgressToken(token ProgressToken, id RequestID) (bound bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.progress[token]; exists {
		return false
	}
	r.progress[token] = id
	if pr, ok := r.entries[id]; ok {
		pr.progressToken = token
	}
	return true
}

// ResolveProgressToken looks up the request id a progress token is bound
// to, reporting whether the token is known (§4.H inbound progress handling).
func (r *Registry) ResolveProgressToken(token ProgressToken) (RequestID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.progress[token]
	return id, ok
}

// Lookup returns the pending entry for id, if any, without mutating state.
func (r *Registry) Lookup(id RequestID) (*pendingRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pr, ok := r.entries[id]
	return pr, ok
}

// State reports the lifecycle state of the pending entry for id, if any
// (§4.I "state_of"). The bool is false once the request is no longer
// tracked, whether because it never existed or because it already reached
// a terminal transition and was removed.
func (r *Registry) State(id RequestID) (pendingState, bool) {
	pr, ok := r.Lookup(id)
	if !ok {
		return 0, false
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.state, true
}

// remove deletes id and any progress token bound to it. Idempotent.
func (r *Registry) remove(id RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pr, ok := r.entries[id]; ok {
		if pr.progressToken != "" {
			delete(r.progress, pr.progressToken)
		}
	}
	delete(r.entries, id)
}

// Complete decodes response.Result into the type the caller registered (or
// carries the response's RPCError) onto the pending entry's one-shot
// channel, then removes it from the registry (§4.F "complete"). A decode
// failure is itself a terminal Failed transition, not a Completed one
// (§4.F: "on decode error transitions Pending -> Failed(decode_err)").
// Idempotent per the documented no-op behavior.
func (r *Registry) Complete(id RequestID, result json.RawMessage, rpcErr *RPCError) error {
	pr, ok := r.Lookup(id)
	if !ok {
		return errUnknownResponseID(id)
	}

	pr.mu.Lock()
	switch pr.state {
	case pendingCancelled:
		pr.mu.Unlock()
		return errCannotCancel(id, "already cancelled")
	case pendingFailed, pendingCompleted:
		pr.mu.Unlock()
		return nil // no-op: terminal transition already happened
	}

	if rpcErr != nil {
		pr.state = pendingFailed
		pr.mu.Unlock()
		pr.stopTimer()
		pr.done <- outcome{rpcErr: rpcErr}
		r.remove(id)
		return nil
	}

	var (
		value     any
		decodeErr error
	)
	if pr.decode != nil {
		value, decodeErr = pr.decode(result)
	}
	if decodeErr != nil {
		pr.state = pendingFailed
		pr.mu.Unlock()
		pr.stopTimer()
		pr.done <- outcome{err: fmt.Errorf("decode result for %s: %w", pr.method, decodeErr)}
		r.remove(id)
		return nil
	}

	pr.state = pendingCompleted
	pr.mu.Unlock()
	pr.stopTimer()
	pr.done <- outcome{value: value}
	r.remove(id)
	return nil
}

// Cancel transitions a pending entry to Cancelled (§4.F "cancel").
func (r *Registry) Cancel(id RequestID) error {
	pr, ok := r.Lookup(id)
	if !ok {
		return errUnknownRequestID(id)
	}

	pr.mu.Lock()
	switch pr.state {
	case pendingCancelled:
		pr.mu.Unlock()
		return nil
	case pendingCompleted, pendingFailed:
		pr.mu.Unlock()
		return errCannotCancel(id, "request already terminal")
	}
	pr.state = pendingCancelled
	pr.mu.Unlock()

	pr.stopTimer()
	pr.done <- outcome{err: &ErrRequestCancelled{ID: id}}
	r.remove(id)
	return nil
}

// fail transitions a pending entry to Failed, reporting whether it did
// (false if the entry was already terminal — used by the timer callback
// to avoid double-delivering).
func (pr *pendingRequest) fail(err error) bool {
	pr.mu.Lock()
	if pr.state != pendingPending {
		pr.mu.Unlock()
		return false
	}
	pr.state = pendingFailed
	pr.mu.Unlock()

	pr.stopTimer()
	pr.done <- outcome{err: err}
	return true
}

// Fail transitions the entry for id to Failed (§4.F "fail"); a no-op if
// already terminal.
func (r *Registry) Fail(id RequestID, err error) error {
	pr, ok := r.Lookup(id)
	if !ok {
		return errUnknownResponseID(id)
	}
	if pr.fail(err) {
		r.remove(id)
	}
	return nil
}

// FailAll fails every remaining pending entry with err and empties the
// registry (§4.G "fatal transport failure" / "disconnect()", §8 invariant
// 4: "After stop()/fatal failure, the pending registry is empty").
func (r *Registry) FailAll(err error) {
	r.mu.Lock()
	entries := make([]*pendingRequest, 0, len(r.entries))
	for _, pr := range r.entries {
		entries = append(entries, pr)
	}
	r.entries = make(map[RequestID]*pendingRequest)
	r.progress = make(map[ProgressToken]RequestID)
	r.mu.Unlock()

	for _, pr := range entries {
		pr.fail(err)
	}
}

// CancelAll cancels every remaining pending entry (§4.G "disconnect()":
// "reject all pending with Cancelled").
func (r *Registry) CancelAll() {
	r.mu.Lock()
	entries := make([]*pendingRequest, 0, len(r.entries))
	for _, pr := range r.entries {
		entries = append(entries, pr)
	}
	r.entries = make(map[RequestID]*pendingRequest)
	r.progress = make(map[ProgressToken]RequestID)
	r.mu.Unlock()

	for _, pr := range entries {
		pr.mu.Lock()
		if pr.state == pendingPending {
			pr.state = pendingCancelled
			pr.mu.Unlock()
			pr.stopTimer()
			pr.done <- outcome{err: &ErrRequestCancelled{ID: pr.id}}
		} else {
			pr.mu.Unlock()
		}
	}
}

// Len reports the number of in-flight pending requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ClearStale drops nothing (all registry entries are, by construction,
// pending) and exists to satisfy the public surface's clear_stale() from
// §4.I; kept as a documented no-op hook since the registry never retains a
// non-pending entry past its terminal transition (invariant 1 and 4 of
// §8 already hold this).
func (r *Registry) ClearStale() {}
