// Package proxy implements the session core of the relay.
//
// A session moves through a one-shot lifecycle:
//
//	accepted -> authenticating -> connecting -> relaying -> closing -> closed
//
// The Supervisor drives it. The AuthGate reads the first client message and
// extracts the bearer token, with a timeout. The Connector dials the single
// upstream with that token as an Authorization header. The Engine then runs
// two forwarding loops, one per direction, each of which validates every
// message as JSON before passing it on.
//
// # Channels
//
// Both legs of a session are Channels: Receive, Send, Close. WebSocketChannel
// adapts a gorilla/websocket connection. Tests use in-memory channels.
//
// # Close codes
//
// The client always learns why a session ended:
//
//   - 1008 for an invalid auth message, a missing token, an auth timeout, or
//     invalid JSON during relaying
//   - 1011 when the upstream cannot be reached, rejects the handshake, or
//     closes abnormally
//   - 1001 when the relay shuts down
//   - 1000 when the other leg closes normally
//
// A message that fails JSON validation ends only its own direction; the
// Engine then closes the other. A panic while handling a single message is
// logged and counted, and the loop moves on.
//
// # Basic Usage
//
//	gate := proxy.NewAuthGate(cfg.Relay.AuthTimeout)
//	connector := proxy.NewWebSocketConnector(&cfg.Upstream)
//	engine := proxy.NewEngine(proxy.WithEngineObserver(collector))
//	supervisor := proxy.NewSupervisor(gate, connector, engine,
//	    proxy.WithObserver(collector),
//	    proxy.WithLogger(logger),
//	)
//
//	// for each upgraded connection
//	err := supervisor.Serve(ctx, proxy.NewWebSocketChannel(conn, time.Second), conn.RemoteAddr().String())
package proxy
