package commands

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewProbeCmd creates the probe command, a liveness check suitable for container health checks.
func NewProbeCmd() *cobra.Command {
	var url string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe the liveness endpoint of a running instance",
		Long:  "GET the liveness endpoint and exit non-zero unless it answers 200 with body \"ok\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("failed to reach %s: %w", url, err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close response body: %v\n", err)
				}
			}()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("liveness endpoint returned status: %d", resp.StatusCode)
			}
			if strings.TrimSpace(string(body)) != "ok" {
				return fmt.Errorf("liveness endpoint returned unexpected body: %q", string(body))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is alive\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/healthz", "Liveness URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}
