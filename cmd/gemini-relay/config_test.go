package main

import (
	"strings"
	"testing"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		wantOut  []string
		wantCode int
	}{
		{
			name:    "valid",
			content: "relay:\n  listen_address: 127.0.0.1:9443\nsecurity:\n  tls:\n    enabled: false\n",
			wantOut: []string{"Configuration valid", "ws://127.0.0.1:9443/"},
		},
		{
			name:     "invalid fields",
			content:  "upstream:\n  url: http://example.com\nsecurity:\n  tls:\n    min_version: \"1.0\"\n",
			wantErr:  true,
			wantOut:  []string{"is invalid", "upstream.url", "security.tls.min_version"},
			wantCode: cli.ExitConfig,
		},
		{
			name:     "malformed yaml",
			content:  "relay: [",
			wantErr:  true,
			wantCode: cli.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			out, err := execute(t, "config", "validate", "-c", path, "-v")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && cli.ExitCode(err) != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), tt.wantCode)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
