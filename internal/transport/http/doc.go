// Package http implements the HTTP handlers for the analysis service.
// Handlers stay thin: they parse and validate the request, call the format
// registry, and translate the closed analysis error taxonomy into
// structured JSON responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Registry → Parsers
//	                                              ↓
//	HTTP Response ← Handler ← ExperimentRecord ←─┘
//
// Analysis lifecycle events (started, complete, failed) are additionally
// broadcast over the websocket hub so interactive clients can follow
// progress without polling.
package http
