// Command mcpcore is a CLI and interactive TUI for mcpcore's MCP client:
// it manages connection profiles and, from the terminal, connects to a
// profile's server, pings it, watches its notifications, and lists and
// calls its tools.
package main

func main() {
	Execute()
}
