// Package driving declares what the HTTP API, CLI, MCP server and TUI may
// ask of the core. internal/core/services implements every interface here.
package driving
