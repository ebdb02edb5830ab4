// Package app assembles the analysis service: configuration, structured
// logging, OpenTelemetry providers, the vendor format registry, the
// websocket event hub, and the chi HTTP router, with graceful shutdown on
// SIGINT/SIGTERM.
package app
