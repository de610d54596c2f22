package main

import (
	"fmt"
	"os"

	"github.com/benvon/emp-backend/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "emp-backend-configure",
		Short: "Configuration tool for the EMP backend",
		Long:  "CLI tool for inspecting the CORS policy and rate limit settings and probing a running instance",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewProbeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
