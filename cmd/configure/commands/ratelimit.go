package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/emp-backend/internal/config"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit command with a check subcommand.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect rate limit configuration",
		Long:  "Validate a rate limit in ulule format (e.g. 5-S, 100-M) before putting it in RATE_LIMIT.",
	}
	cmd.AddCommand(newRatelimitCheckCmd())
	return cmd
}

func newRatelimitCheckCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate and describe a rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				rate = cfg.RateLimit
			}
			if rate == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Rate limiting is disabled (RATE_LIMIT is not set).")
				return nil
			}
			parsed, err := limiter.NewRateFromFormatted(rate)
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", rate, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate limit %s: %d requests per %s per client IP\n", rate, parsed.Limit, parsed.Period)
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate to check (defaults to RATE_LIMIT)")
	return cmd
}
