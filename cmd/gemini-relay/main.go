// gemini-relay is a TLS-terminating WebSocket relay for the Gemini
// multimodal live API.
//
// A client connects, sends {"bearer_token": "..."} as its first message and
// the relay opens an authenticated WebSocket to the configured upstream. JSON
// messages are then forwarded in both directions until either side closes.
//
// Usage:
//
//	# Generate a development certificate and start the relay
//	gemini-relay certs generate --output certs/
//	gemini-relay run --cert certs/server.crt --key certs/server.key
//
//	# Plain ws:// for local testing
//	gemini-relay run --insecure-listen --listen 127.0.0.1:8080
//
//	# Check a configuration file
//	gemini-relay config validate -c relay.yaml
package main

func main() {
	Execute()
}
