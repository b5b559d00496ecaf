package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates",
	Long: `Manage the TLS certificate the relay serves.

Subcommands:
  generate - Generate a self-signed certificate for development
  validate - Validate a certificate and key pair
  info     - Display certificate details

Examples:
  # Generate a certificate for localhost
  gemini-relay certs generate --output certs/

  # Validate the configured pair
  gemini-relay certs validate --cert certs/server.crt --key certs/server.key

  # Inspect a certificate
  gemini-relay certs info certs/server.crt`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
