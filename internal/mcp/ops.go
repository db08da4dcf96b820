package mcp

import "context"

// Ping issues a liveness check (§4.I "ping").
func Ping(ctx context.Context, c *Client) error {
	_, err := SendRequest[PingResult](ctx, c, MethodPing, EmptyParams{})
	return err
}

// ListTools fetches one page of the tool catalog.
func ListTools(ctx context.Context, c *Client, cursor string) (ToolsListResult, error) {
	return SendRequest[ToolsListResult](ctx, c, MethodToolsList, ToolsListParams{Cursor: cursor})
}

// CallTool invokes a tool by name with the given arguments.
func CallTool(ctx context.Context, c *Client, name string, arguments any) (ToolsCallResult, error) {
	raw, err := encodeParams(arguments)
	if err != nil {
		return ToolsCallResult{}, err
	}
	return SendRequest[ToolsCallResult](ctx, c, MethodToolsCall, ToolsCallParams{Name: name, Arguments: raw})
}

// ListResources fetches one page of the resource catalog.
func ListResources(ctx context.Context, c *Client, cursor string) (ResourcesListResult, error) {
	return SendRequest[ResourcesListResult](ctx, c, MethodResourcesList, ResourcesListParams{Cursor: cursor})
}

// ListResourceTemplates fetches the server's resource templates.
func ListResourceTemplates(ctx context.Context, c *Client) (ResourcesTemplatesListResult, error) {
	return SendRequest[ResourcesTemplatesListResult](ctx, c, MethodResourcesTemplatesList, EmptyParams{})
}

// ReadResource fetches the contents of one resource URI.
func ReadResource(ctx context.Context, c *Client, uri string) (ResourcesReadResult, error) {
	return SendRequest[ResourcesReadResult](ctx, c, MethodResourcesRead, ResourcesReadParams{URI: uri})
}

// SubscribeResource asks the server to notify on changes to uri. It
// requires ServerCapabilities.ResourcesSubscribe (§4.H capability gate is
// enforced server-side; callers should check the capability first).
func SubscribeResource(ctx context.Context, c *Client, uri string) error {
	_, err := SendRequest[EmptyParams](ctx, c, MethodResourcesSubscribe, ResourcesSubscribeParams{URI: uri})
	return err
}

// UnsubscribeResource reverses SubscribeResource.
func UnsubscribeResource(ctx context.Context, c *Client, uri string) error {
	_, err := SendRequest[EmptyParams](ctx, c, MethodResourcesUnsubscribe, ResourcesUnsubscribeParams{URI: uri})
	return err
}

// ListPrompts fetches one page of the prompt catalog.
func ListPrompts(ctx context.Context, c *Client, cursor string) (PromptsListResult, error) {
	return SendRequest[PromptsListResult](ctx, c, MethodPromptsList, PromptsListParams{Cursor: cursor})
}

// GetPrompt renders a named prompt with the given arguments.
func GetPrompt(ctx context.Context, c *Client, name string, arguments map[string]string) (PromptsGetResult, error) {
	return SendRequest[PromptsGetResult](ctx, c, MethodPromptsGet, PromptsGetParams{Name: name, Arguments: arguments})
}

// SetLoggingLevel asks the server to emit notifications/message at level
// and above.
func SetLoggingLevel(ctx context.Context, c *Client, level string) error {
	_, err := SendRequest[EmptyParams](ctx, c, MethodLoggingSetLevel, LoggingSetLevelParams{Level: level})
	return err
}

// Complete requests argument-completion suggestions.
func Complete(ctx context.Context, c *Client, params CompletionCompleteParams) (CompletionCompleteResult, error) {
	return SendRequest[CompletionCompleteResult](ctx, c, MethodCompletionComplete, params)
}
