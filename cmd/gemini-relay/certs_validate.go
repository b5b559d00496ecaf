package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	tlspkg "github.com/dineshabey/gemini-multimodal-api-websocket/pkg/security/tls"
)

var validateCertFlags struct {
	certFile string
	keyFile  string
}

var certsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate certificate and key pair",
	Long: `Check that a certificate and private key match and that the certificate
is currently valid.

Without --cert and --key the paths from security.tls in the config file are
used.

Examples:
  gemini-relay certs validate --cert server.crt --key server.key
  gemini-relay certs validate -c relay.yaml`,
	Args: cobra.NoArgs,
	RunE: validateCertificate,
}

func init() {
	certsCmd.AddCommand(certsValidateCmd)

	certsValidateCmd.Flags().StringVar(&validateCertFlags.certFile, "cert", "", "certificate file")
	certsValidateCmd.Flags().StringVar(&validateCertFlags.keyFile, "key", "", "private key file")
}

func validateCertificate(cmd *cobra.Command, args []string) error {
	certFile, keyFile := validateCertFlags.certFile, validateCertFlags.keyFile
	if certFile == "" || keyFile == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if certFile == "" {
			certFile = cfg.Security.TLS.CertFile
		}
		if keyFile == "" {
			keyFile = cfg.Security.TLS.KeyFile
		}
	}

	pair, err := tlspkg.LoadKeyPair(certFile, keyFile)
	if err != nil {
		return cli.NewCommandError("certs validate", err)
	}

	info := tlspkg.ExtractCertificateInfo(pair.Leaf, time.Now())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Certificate and key match: %s, %s\n", certFile, keyFile)
	fmt.Fprintf(out, "✓ Valid until %s (%d days)\n", info.NotAfter.Format(time.RFC3339), info.DaysRemaining)
	if info.SelfSigned {
		fmt.Fprintln(out, "  Certificate is self-signed")
	}
	return nil
}
