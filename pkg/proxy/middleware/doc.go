// Package middleware provides HTTP middleware for the relay listener.
//
// # Middleware Chain
//
//	handler = Recovery(Logging(RequestID(handler)))
//
// Order (innermost to outermost):
//  1. RequestID: Assign a request ID and store it in the logging context
//  2. Logging: Log method, path, status and latency
//  3. Recovery: Recover from panics and return 500
//
// All writers installed by this package implement http.Hijacker, so WebSocket
// upgrades work through the whole chain. For an upgraded request the
// completion log line is written when the session ends, with status 101.
//
// # Request ID
//
// RequestIDMiddleware assigns a UUID to each request, or reuses the client's
// X-Request-ID header:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// Every log line of the session carries it as request_id.
//
// # Origin checks
//
// OriginChecker implements websocket.Upgrader.CheckOrigin from the
// relay.allowed_origins setting.
package middleware
