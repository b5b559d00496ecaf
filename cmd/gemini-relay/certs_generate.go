package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	tlspkg "github.com/dineshabey/gemini-multimodal-api-websocket/pkg/security/tls"
)

var generateFlags struct {
	hosts    string
	org      string
	validity int
	output   string
	force    bool
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate self-signed certificate",
	Long: `Generate a self-signed ECDSA P-256 certificate and key for development.

The files are written as server.crt and server.key in the output
directory, which matches the default security.tls paths when the output
directory is ".". The key is written with mode 0600.

WARNING: self-signed certificates are for local development only. Clients
must be told to trust the certificate explicitly.

Examples:
  # Certificate for localhost and 127.0.0.1
  gemini-relay certs generate

  # Additional names, 30 day validity
  gemini-relay certs generate --host "localhost,127.0.0.1,relay.local" --validity 30

  # Replace an existing pair
  gemini-relay certs generate --output certs/ --force`,
	Args: cobra.NoArgs,
	RunE: generateCertificate,
}

func init() {
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&generateFlags.hosts, "host", "localhost,127.0.0.1", "comma-separated hostnames and IPs")
	certsGenerateCmd.Flags().StringVar(&generateFlags.org, "org", "gemini-relay", "organization name")
	certsGenerateCmd.Flags().IntVar(&generateFlags.validity, "validity", 365, "validity in days")
	certsGenerateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", ".", "output directory")
	certsGenerateCmd.Flags().BoolVar(&generateFlags.force, "force", false, "overwrite existing files")
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	if generateFlags.validity <= 0 {
		return cli.NewConfigError("validity", fmt.Sprintf("must be positive, got %d", generateFlags.validity))
	}

	var hosts []string
	for _, h := range strings.Split(generateFlags.hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return cli.NewConfigError("host", "at least one hostname or IP is required")
	}

	certPEM, keyPEM, err := tlspkg.GenerateSelfSigned(tlspkg.SelfSignedOptions{
		Hosts:        hosts,
		Organization: generateFlags.org,
		ValidFor:     time.Duration(generateFlags.validity) * 24 * time.Hour,
	})
	if err != nil {
		return cli.NewCommandError("certs generate", err)
	}

	certFile := filepath.Join(generateFlags.output, "server.crt")
	keyFile := filepath.Join(generateFlags.output, "server.key")
	if err := tlspkg.WriteKeyPair(certFile, keyFile, certPEM, keyPEM, generateFlags.force); err != nil {
		return cli.NewCommandError("certs generate", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Certificate: %s\n", certFile)
	fmt.Fprintf(out, "✓ Private key: %s\n", keyFile)
	fmt.Fprintf(out, "  Hosts: %s\n", strings.Join(hosts, ", "))
	fmt.Fprintf(out, "  Valid for %d days\n", generateFlags.validity)
	fmt.Fprintln(out, "\nWARNING: self-signed, for development only")
	return nil
}
