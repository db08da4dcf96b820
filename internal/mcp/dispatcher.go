package mcp

import (
	"context"
)

// dispatchLoop is the single consumer of the transport's inbound channel
// (§4.H). It runs for the lifetime of one Connect, ending when the
// transport closes Inbound (clean stop or fatal failure) and joining via
// c.wg so Close can wait for it.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()
	for frame := range c.transport.Inbound() {
		c.handleFrame(frame)
	}
	c.onTransportEnded()
}

func (c *Client) onTransportEnded() {
	if err := c.transport.Err(); err != nil {
		c.session.fail(err)
		c.registry.FailAll(err)
		return
	}
	c.registry.CancelAll()
	// A clean transport stop only returns the session to Disconnected if
	// nothing already failed it first (Failed is terminal, §3) — the health
	// check loop fails the session and then stops the transport itself, and
	// that stop must not resurrect a session it just killed.
	if c.session.State() != SessionFailed {
		c.session.disconnect()
	}
}

// handleFrame classifies one raw frame and routes it. A frame that fails
// to decode at all is treated as the fatal case of §4.H: the session is
// failed and the transport torn down rather than silently dropped, since
// there is no id to correlate a targeted error to.
func (c *Client) handleFrame(raw []byte) {
	kind, req, notif, resp, errFrame, err := Decode(raw)
	if err != nil {
		c.logger("mcp: dropping unparseable frame: %v", err)
		c.session.fail(err)
		_ = c.transport.Stop()
		return
	}

	switch kind {
	case FrameRequest:
		c.handleServerRequest(req)
	case FrameNotification:
		c.handleServerNotification(notif)
	case FrameResponse:
		if err := c.registry.Complete(resp.ID, resp.Result, nil); err != nil {
			c.logger("mcp: response for unknown id %s: %v", resp.ID, err)
		}
	case FrameError:
		if errFrame.ID == nil {
			c.logger("mcp: error frame with no id: %v", errFrame.Err)
			return
		}
		if err := c.registry.Complete(*errFrame.ID, nil, errFrame.Err); err != nil {
			c.logger("mcp: error response for unknown id %s: %v", errFrame.ID, err)
		}
	default:
		c.logger("mcp: unclassified frame")
	}
}

// handleServerRequest answers ping/sampling/roots per §4.H "Server
// request": unknown or unsupported-capability methods get a JSON-RPC
// error reply rather than being silently dropped, since the peer is
// blocked waiting on a response.
func (c *Client) handleServerRequest(req Request) {
	method := RequestMethod(req.Method)
	if !method.IsServerMethod() {
		c.replyError(req.ID, &RPCError{Code: CodeMethodNotFound, Message: unknownRequestMethod(req.Method).Error()})
		return
	}

	switch method {
	case MethodPing:
		c.replyResult(req.ID, PingResult{})

	case MethodSamplingCreateMessage:
		if c.samplingHandler == nil {
			c.replyError(req.ID, &RPCError{Code: CodeMethodNotFound, Message: unsupportedCapability(req.Method).Error()})
			return
		}
		params, err := AsTyped[SamplingCreateMessageParams](req, MethodSamplingCreateMessage)
		if err != nil {
			c.replyError(req.ID, &RPCError{Code: CodeInvalidParams, Message: err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SendTimeout)
		defer cancel()
		result, err := c.samplingHandler(ctx, params)
		if err != nil {
			c.replyError(req.ID, &RPCError{Code: CodeInternalError, Message: err.Error()})
			return
		}
		c.replyResult(req.ID, result)

	case MethodRootsList:
		if c.rootsHandler == nil {
			c.replyError(req.ID, &RPCError{Code: CodeMethodNotFound, Message: unsupportedCapability(req.Method).Error()})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SendTimeout)
		defer cancel()
		result, err := c.rootsHandler(ctx)
		if err != nil {
			c.replyError(req.ID, &RPCError{Code: CodeInternalError, Message: err.Error()})
			return
		}
		c.replyResult(req.ID, result)
	}
}

// handleServerNotification fans list-changed/updated/logging events out on
// the notification bus, resolves progress tokens to the caller's
// ProgressHandler, and logs anything unrecognized (§4.H).
func (c *Client) handleServerNotification(notif Notification) {
	method := NotificationMethod(notif.Method)
	if !method.IsServerMethod() {
		c.logger("mcp: unknown notification method %s", notif.Method)
		return
	}

	switch method {
	case NotifyCancelled:
		params, err := DecodeNotificationParams[CancelledParams](notif, NotifyCancelled)
		if err != nil {
			c.logger("mcp: malformed cancelled notification: %v", err)
			return
		}
		// The reserved initialize id can never be the target of a cancel
		// (§4.G): the handshake is synchronous and has no pending entry to
		// cancel by the time a notification could arrive for it.
		if params.RequestID.Equal(ReservedInitializeID) {
			c.logger("mcp: ignoring cancel for reserved initialize id")
			return
		}
		if err := c.registry.Cancel(params.RequestID); err != nil {
			c.logger("mcp: server cancelled request %s: %s (%v)", params.RequestID, params.Reason, err)
		}

	case NotifyProgress:
		params, err := DecodeNotificationParams[ProgressParams](notif, NotifyProgress)
		if err != nil {
			c.logger("mcp: malformed progress notification: %v", err)
			return
		}
		if _, ok := c.registry.ResolveProgressToken(params.ProgressToken); ok && c.progressHandler != nil {
			c.progressHandler(params)
		}

	case NotifyResourcesListChanged:
		c.bus.Publish(ResourcesListChangedEvent{newBaseEvent(method)})

	case NotifyResourcesUpdated:
		params, err := DecodeNotificationParams[ResourcesUpdatedParams](notif, NotifyResourcesUpdated)
		if err != nil {
			c.logger("mcp: malformed resources/updated notification: %v", err)
			return
		}
		c.bus.Publish(ResourcesUpdatedEvent{newBaseEvent(method), params.URI})

	case NotifyPromptsListChanged:
		c.bus.Publish(PromptsListChangedEvent{newBaseEvent(method)})

	case NotifyToolsListChanged:
		c.bus.Publish(ToolsListChangedEvent{newBaseEvent(method)})

	case NotifyLoggingMessage:
		params, err := DecodeNotificationParams[LoggingMessageParams](notif, NotifyLoggingMessage)
		if err != nil {
			c.logger("mcp: malformed logging message notification: %v", err)
			return
		}
		c.bus.Publish(LoggingMessageEvent{newBaseEvent(method), params})
	}
}

func (c *Client) replyResult(id RequestID, result any) {
	raw, err := encodeParams(result)
	if err != nil {
		c.logger("mcp: encode result for %s: %v", id, err)
		return
	}
	if raw == nil {
		raw = []byte("{}")
	}
	frame, err := EncodeResponse(Response{ID: id, Result: raw})
	if err != nil {
		c.logger("mcp: encode response for %s: %v", id, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.SendTimeout)
	defer cancel()
	if err := c.transport.Send(ctx, frame, c.config.SendTimeout); err != nil {
		c.logger("mcp: send response for %s: %v", id, err)
	}
}

func (c *Client) replyError(id RequestID, rpcErr *RPCError) {
	frame, err := EncodeError(ErrorFrame{ID: &id, Err: rpcErr})
	if err != nil {
		c.logger("mcp: encode error response for %s: %v", id, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.SendTimeout)
	defer cancel()
	if err := c.transport.Send(ctx, frame, c.config.SendTimeout); err != nil {
		c.logger("mcp: send error response for %s: %v", id, err)
	}
}
