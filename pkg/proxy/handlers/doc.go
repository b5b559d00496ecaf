// Package handlers provides the HTTP handlers of the relay listener.
//
// WebSocketHandler accepts upgrade requests on the relay path. Each upgraded
// connection becomes one session, served by a proxy.Supervisor until both
// legs are closed. Requests that are not upgrades get 426, and upgrades
// during shutdown get 503.
//
// SessionsHandler lists live sessions as JSON:
//
//	{
//	  "count": 1,
//	  "sessions": [
//	    {
//	      "id": "0b6c5c1e-2f3e-4bb8-9a51-4f1f3c7d2a10",
//	      "state": "relaying",
//	      "remote_addr": "192.168.1.100:54321",
//	      "created_at": "2026-03-02T10:30:00Z",
//	      "duration_seconds": 42.5,
//	      "upstream_connected": true
//	    }
//	  ],
//	  "timestamp": 1772447442
//	}
//
// Errors are returned as:
//
//	{"error": {"message": "expected WebSocket upgrade", "code": 426}}
package handlers
