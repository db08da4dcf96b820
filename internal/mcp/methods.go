package mcp

// RequestMethod is a closed enumeration of JSON-RPC method names legal on
// a request frame (§3 "Request method"). The client-origin set is what the
// public surface is allowed to send; the server-origin set is what the
// inbound dispatcher is allowed to receive as a server-initiated request.
type RequestMethod string

const (
	MethodInitialize             RequestMethod = "initialize"
	MethodPing                   RequestMethod = "ping"
	MethodResourcesList          RequestMethod = "resources/list"
	MethodResourcesTemplatesList RequestMethod = "resources/templates/list"
	MethodResourcesRead          RequestMethod = "resources/read"
	MethodResourcesSubscribe     RequestMethod = "resources/subscribe"
	MethodResourcesUnsubscribe   RequestMethod = "resources/unsubscribe"
	MethodPromptsList            RequestMethod = "prompts/list"
	MethodPromptsGet             RequestMethod = "prompts/get"
	MethodToolsList              RequestMethod = "tools/list"
	MethodToolsCall              RequestMethod = "tools/call"
	MethodLoggingSetLevel        RequestMethod = "logging/setLevel"
	MethodCompletionComplete     RequestMethod = "completion/complete"

	MethodSamplingCreateMessage RequestMethod = "sampling/createMessage"
	MethodRootsList             RequestMethod = "roots/list"
)

var clientRequestMethods = map[RequestMethod]bool{
	MethodInitialize:             true,
	MethodPing:                   true,
	MethodResourcesList:          true,
	MethodResourcesTemplatesList: true,
	MethodResourcesRead:          true,
	MethodResourcesSubscribe:     true,
	MethodResourcesUnsubscribe:   true,
	MethodPromptsList:            true,
	MethodPromptsGet:             true,
	MethodToolsList:              true,
	MethodToolsCall:              true,
	MethodLoggingSetLevel:        true,
	MethodCompletionComplete:     true,
}

var serverRequestMethods = map[RequestMethod]bool{
	MethodPing:                  true,
	MethodSamplingCreateMessage: true,
	MethodRootsList:             true,
}

// IsClientMethod reports whether m is a method the client is permitted to
// send as a request.
func (m RequestMethod) IsClientMethod() bool { return clientRequestMethods[m] }

// IsServerMethod reports whether m is a method the client may receive as a
// server-initiated request.
func (m RequestMethod) IsServerMethod() bool { return serverRequestMethods[m] }

// NotificationMethod is a closed enumeration of JSON-RPC method names legal
// on a notification frame (§3 "Notification method").
type NotificationMethod string

const (
	NotifyInitialized           NotificationMethod = "notifications/initialized"
	NotifyCancelled             NotificationMethod = "notifications/cancelled"
	NotifyProgress              NotificationMethod = "notifications/progress"
	NotifyRootsListChanged      NotificationMethod = "notifications/roots/list_changed"
	NotifyResourcesListChanged  NotificationMethod = "notifications/resources/list_changed"
	NotifyResourcesUpdated      NotificationMethod = "notifications/resources/updated"
	NotifyPromptsListChanged    NotificationMethod = "notifications/prompts/list_changed"
	NotifyToolsListChanged      NotificationMethod = "notifications/tools/list_changed"
	NotifyLoggingMessage        NotificationMethod = "notifications/message"
)

var clientNotificationMethods = map[NotificationMethod]bool{
	NotifyInitialized:      true,
	NotifyCancelled:        true,
	NotifyProgress:         true,
	NotifyRootsListChanged: true,
}

var serverNotificationMethods = map[NotificationMethod]bool{
	NotifyCancelled:            true,
	NotifyProgress:             true,
	NotifyResourcesListChanged: true,
	NotifyResourcesUpdated:     true,
	NotifyPromptsListChanged:   true,
	NotifyToolsListChanged:     true,
	NotifyLoggingMessage:       true,
}

// IsClientMethod reports whether m is a notification the client may send.
func (m NotificationMethod) IsClientMethod() bool { return clientNotificationMethods[m] }

// IsServerMethod reports whether m is a notification the client may receive.
func (m NotificationMethod) IsServerMethod() bool { return serverNotificationMethods[m] }
