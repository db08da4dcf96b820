package mcp

import "encoding/json"

// Tool describes a tool exposed by the server (tools/list result entry).
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	Meta        json.RawMessage `json:"_meta,omitempty"`
}

// ContentBlock preserves the full shape of a content entry (text, image,
// resource, ...) without committing to one variant, matching the teacher's
// ContentBlock pattern (internal/mcp/client.go) and spec.md §9's guidance
// to keep an explicit JSON value type rather than a closed struct union.
type ContentBlock json.RawMessage

func (c ContentBlock) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(c), nil
}

func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	*c = ContentBlock(append([]byte(nil), data...))
	return nil
}

// ClientCapabilities is what the client advertises during initialize.
type ClientCapabilities struct {
	RootsListChanged bool `json:"-"`
	HasSamplingHandler bool `json:"-"`
	HasRootsHandler    bool `json:"-"`
}

// MarshalJSON renders the wire shape expected by initialize params.
func (c ClientCapabilities) MarshalJSON() ([]byte, error) {
	wire := map[string]any{}
	if c.RootsListChanged {
		wire["roots"] = map[string]any{"listChanged": true}
	}
	if c.HasSamplingHandler {
		wire["sampling"] = map[string]any{}
	}
	if c.HasRootsHandler && !c.RootsListChanged {
		wire["roots"] = map[string]any{}
	}
	return json.Marshal(wire)
}

// ServerCapabilities is what the server advertised in its initialize
// result; the session holds this once Running (§3 "Session state").
type ServerCapabilities struct {
	PromptsListChanged   bool
	ResourcesListChanged bool
	ResourcesSubscribe   bool
	ToolsListChanged     bool
	Logging              bool
	Sampling             bool
	raw                  json.RawMessage
}

func parseServerCapabilities(raw json.RawMessage) ServerCapabilities {
	var wire struct {
		Prompts *struct {
			ListChanged bool `json:"listChanged"`
		} `json:"prompts"`
		Resources *struct {
			ListChanged bool `json:"listChanged"`
			Subscribe   bool `json:"subscribe"`
		} `json:"resources"`
		Tools *struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools"`
		Logging  json.RawMessage `json:"logging"`
		Sampling json.RawMessage `json:"sampling"`
	}
	_ = json.Unmarshal(raw, &wire)

	caps := ServerCapabilities{raw: raw}
	if wire.Prompts != nil {
		caps.PromptsListChanged = wire.Prompts.ListChanged
	}
	if wire.Resources != nil {
		caps.ResourcesListChanged = wire.Resources.ListChanged
		caps.ResourcesSubscribe = wire.Resources.Subscribe
	}
	if wire.Tools != nil {
		caps.ToolsListChanged = wire.Tools.ListChanged
	}
	caps.Logging = len(wire.Logging) > 0
	caps.Sampling = len(wire.Sampling) > 0
	return caps
}

// Raw returns the unparsed capabilities object for callers that need a
// field this type doesn't surface.
func (c ServerCapabilities) Raw() json.RawMessage { return c.raw }

// ServerInfo mirrors the initialize result's serverInfo block.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ProgressToken is the opaque value a request's metadata carries so the
// peer can correlate progress notifications to it (§3 "Progress
// registration", glossary).
type ProgressToken string

// Meta carries the reserved "_meta" field present on requests/results; the
// canonical wire key is "_meta" per spec.md §9's Open Question resolution.
type Meta struct {
	ProgressToken ProgressToken `json:"progressToken,omitempty"`
}

type withMeta struct {
	Meta *Meta `json:"_meta,omitempty"`
}
