// cmd/healthz-bridge/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "healthz-bridge",
	Short: "Expose a game service's health over HTTP",
	Long: `healthz-bridge listens for status heartbeats from a co-located service on a
datagram transport and answers GET /healthz with the last reported code.

The service is reported unavailable (503) until it connects, after it
disconnects, and when a healthy service stops sending heartbeats for more
than one second. Whenever the status is 503 the bridge ships any local crash
dumps to the diagnostics collector.

Examples:
  # Serve with defaults (HTTP 8080, transport 5050)
  healthz-bridge

  # Serve from a config file with a custom HTTP port
  healthz-bridge --config bridge.yaml --http-port 9090

  # Check a running bridge
  healthz-bridge probe --addr 127.0.0.1:8080`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
