package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

// bearerTokenField is the key the first client message must carry.
const bearerTokenField = "bearer_token"

// AuthGate consumes the first client message and extracts the bearer token.
type AuthGate struct {
	timeout time.Duration
}

// NewAuthGate creates an AuthGate. A non-positive timeout uses the default.
func NewAuthGate(timeout time.Duration) *AuthGate {
	if timeout <= 0 {
		timeout = config.DefaultAuthTimeout
	}
	return &AuthGate{timeout: timeout}
}

// Timeout returns how long a client has to authenticate after its
// connection is accepted.
func (g *AuthGate) Timeout() time.Duration {
	return g.timeout
}

// Authenticate waits for exactly one message from client and returns the
// bearer token it carries. The deadline runs from now.
func (g *AuthGate) Authenticate(ctx context.Context, client Channel) (string, error) {
	return g.AuthenticateSince(ctx, client, time.Now())
}

// AuthenticateSince is Authenticate with the deadline measured from
// acceptedAt, the moment the client connection was accepted. The message
// itself is discarded.
//
// Failures of the message are returned as *AuthError. If the client goes away
// or ctx is cancelled first, the channel or context error is returned as is.
func (g *AuthGate) AuthenticateSince(ctx context.Context, client Channel, acceptedAt time.Time) (string, error) {
	authCtx, cancel := context.WithDeadline(ctx, acceptedAt.Add(g.timeout))
	defer cancel()

	raw, err := client.Receive(authCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", &AuthError{Kind: AuthTimeout, Cause: err}
		}
		return "", err
	}
	return ParseAuthMessage(raw)
}

// ParseAuthMessage extracts the bearer token from an auth message. Fields
// other than bearer_token are ignored. A token that is not a non-empty string
// counts as missing.
func ParseAuthMessage(raw []byte) (string, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &AuthError{Kind: AuthInvalidJSON, Cause: err}
	}

	fields, ok := payload.(map[string]any)
	if !ok {
		return "", &AuthError{Kind: AuthMissingToken, Cause: errors.New("auth message is not a JSON object")}
	}
	value, ok := fields[bearerTokenField]
	if !ok {
		return "", &AuthError{Kind: AuthMissingToken}
	}
	token, ok := value.(string)
	if !ok || token == "" {
		return "", &AuthError{Kind: AuthMissingToken, Cause: errors.New("bearer_token must be a non-empty string")}
	}
	return token, nil
}
