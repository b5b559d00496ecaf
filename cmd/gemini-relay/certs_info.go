package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/cli"
	tlspkg "github.com/dineshabey/gemini-multimodal-api-websocket/pkg/security/tls"
)

var infoFlags struct {
	format string
}

var certsInfoCmd = &cobra.Command{
	Use:   "info <cert-file>",
	Short: "Display certificate details",
	Long: `Display the subject, validity window and names of every certificate in a
PEM file.

Examples:
  gemini-relay certs info server.crt
  gemini-relay certs info server.crt --format json`,
	Args: cobra.ExactArgs(1),
	RunE: showCertificateInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)

	certsInfoCmd.Flags().StringVarP(&infoFlags.format, "format", "f", "text", "output format (text, json)")
}

// certChain renders a PEM bundle for text output.
type certChain []*tlspkg.CertificateInfo

func (c certChain) Text() string {
	var sb strings.Builder
	for i, info := range c {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Certificate %d\n", i+1)
		fmt.Fprintf(&sb, "  Subject:       %s\n", info.Subject)
		fmt.Fprintf(&sb, "  Issuer:        %s\n", info.Issuer)
		fmt.Fprintf(&sb, "  Serial:        %s\n", info.SerialNumber)
		fmt.Fprintf(&sb, "  Not Before:    %s\n", info.NotBefore.Format(time.RFC3339))
		fmt.Fprintf(&sb, "  Not After:     %s\n", info.NotAfter.Format(time.RFC3339))
		fmt.Fprintf(&sb, "  Days Left:     %d\n", info.DaysRemaining)
		if len(info.DNSNames) > 0 {
			fmt.Fprintf(&sb, "  DNS Names:     %s\n", strings.Join(info.DNSNames, ", "))
		}
		if len(info.IPAddresses) > 0 {
			fmt.Fprintf(&sb, "  IP Addresses:  %s\n", strings.Join(info.IPAddresses, ", "))
		}
		fmt.Fprintf(&sb, "  Key:           %s\n", info.PublicKeyAlgorithm)
		fmt.Fprintf(&sb, "  Signature:     %s\n", info.SignatureAlgorithm)
		fmt.Fprintf(&sb, "  CA:            %t\n", info.IsCA)
		fmt.Fprintf(&sb, "  Self-signed:   %t\n", info.SelfSigned)
	}
	return sb.String()
}

func showCertificateInfo(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(infoFlags.format)
	if err != nil {
		return err
	}

	certs, err := tlspkg.ReadCertificates(args[0])
	if err != nil {
		return cli.NewCommandError("certs info", err)
	}

	now := time.Now()
	chain := make(certChain, 0, len(certs))
	for _, c := range certs {
		chain = append(chain, tlspkg.ExtractCertificateInfo(c, now))
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), []*tlspkg.CertificateInfo(chain))
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), chain)
}
