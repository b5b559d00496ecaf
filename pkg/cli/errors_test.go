package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("relay.listen_address", "missing port")
	want := "config error in relay.listen_address: missing port"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	base := errors.New("boom")
	err := NewCommandError("certs generate", base)

	if err.Error() != "certs generate: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("CommandError should unwrap to the cause")
	}
}

func TestConfigErrors(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{
		{Field: "upstream.url", Message: "scheme must be ws or wss"},
		{Field: "relay.auth_timeout", Message: "must be positive"},
	}}

	got := ConfigErrors(fmt.Errorf("load: %w", verr))
	if len(got) != 2 {
		t.Fatalf("got %d errors, want 2", len(got))
	}
	if got[0].Field != "upstream.url" || got[1].Field != "relay.auth_timeout" {
		t.Errorf("fields = %q, %q", got[0].Field, got[1].Field)
	}

	if ConfigErrors(errors.New("other")) != nil {
		t.Error("non-validation errors should yield nil")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain", err: errors.New("boom"), want: ExitFailure},
		{name: "config error", err: NewConfigError("format", "bad"), want: ExitConfig},
		{name: "wrapped validation", err: NewCommandError("run", config.ValidationError{}), want: ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
