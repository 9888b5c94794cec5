// cmd/healthz-bridge/probe.go
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tamzrod/healthz-bridge/internal/server"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Query a running bridge's /healthz",
	Long: `Send GET /healthz to a running bridge and print the reported status.

Exits 0 when the service is healthy (200) and 1 otherwise.

Examples:
  healthz-bridge probe
  healthz-bridge probe --addr 10.0.0.7:8080 --timeout 500ms`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		code, err := probe(&http.Client{Timeout: timeout}, addr)
		if err != nil {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
			os.Exit(1)
		}

		printProbe(os.Stdout, code)
		if code != http.StatusOK {
			os.Exit(1)
		}
	},
}

func init() {
	probeCmd.Flags().String("addr", "127.0.0.1:8080", "Bridge HTTP address (host:port)")
	probeCmd.Flags().Duration("timeout", 2*time.Second, "Request timeout")
	rootCmd.AddCommand(probeCmd)
}

// probe returns the HTTP status of GET /healthz at addr.
func probe(client *http.Client, addr string) (int, error) {
	resp, err := client.Get("http://" + addr + server.PathHealthz)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", addr, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func printProbe(w io.Writer, code int) {
	text := http.StatusText(code)
	if text == "" {
		text = "service-defined"
	}

	switch {
	case code == http.StatusOK:
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(w, "%s %d %s\n", green("✓"), code, text)
	case code == http.StatusServiceUnavailable:
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(w, "%s %d %s\n", yellow("⚠"), code, text)
	default:
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(w, "%s %d %s\n", red("✗"), code, text)
	}
}
