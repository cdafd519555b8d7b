//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload for the knowlio server while editing templates and handlers
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run:     DEV=true air (templates reload from frontend/templates)
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates internal/mocks after port or repository interface changes
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Run:     go generate ./internal/mocks
