package commands

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"

	"github.com/benvon/emp-backend/internal/config"
	"github.com/benvon/emp-backend/internal/middleware"
	"github.com/benvon/emp-backend/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCorsCmd creates the cors command with show and check subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Inspect CORS policy",
		Long:  "Show the effective CORS policy or evaluate a request against it without starting the server.",
	}
	cmd.AddCommand(newCorsShowCmd())
	cmd.AddCommand(newCorsCheckCmd())
	return cmd
}

// loadPolicy reads the policy from file, falling back to CORS_CONFIG_FILE and then the
// built-in defaults.
func loadPolicy(file string) (*models.CorsPolicy, error) {
	if file == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		file = cfg.CorsConfigFile
	}
	policy, err := config.LoadCorsPolicy(file)
	if err != nil {
		return nil, fmt.Errorf("load cors policy: %w", err)
	}
	return policy, nil
}

func newCorsShowCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective CORS policy as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := loadPolicy(file)
			if err != nil {
				return err
			}
			data, err := config.MarshalCorsPolicy(policy)
			if err != nil {
				return fmt.Errorf("marshal cors policy: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CORS policy YAML file (defaults to CORS_CONFIG_FILE)")
	return cmd
}

func newCorsCheckCmd() *cobra.Command {
	var file, origin, method, path string
	var preflight bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a request against the CORS policy",
		Long:  "Run a synthetic request through the CORS middleware and print the status and Access-Control-* headers it produces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := loadPolicy(file)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(path, "/") {
				return fmt.Errorf("--path must start with '/'")
			}
			method = strings.ToUpper(strings.TrimSpace(method))
			if method == "" {
				return fmt.Errorf("--method cannot be empty")
			}
			checkRequest(cmd.OutOrStdout(), policy, origin, method, path, preflight)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CORS policy YAML file (defaults to CORS_CONFIG_FILE)")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin header to send")
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "Request method, or the requested method for a pre-flight")
	cmd.Flags().StringVar(&path, "path", "/", "Request path")
	cmd.Flags().BoolVar(&preflight, "preflight", false, "Send an OPTIONS pre-flight instead of an actual request")
	if err := cmd.MarkFlagRequired("origin"); err != nil {
		panic(err)
	}
	return cmd
}

func checkRequest(out io.Writer, policy *models.CorsPolicy, origin, method, path string, preflight bool) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORS(policy, zap.NewNop())(next)

	reqMethod := method
	if preflight {
		reqMethod = http.MethodOptions
	}
	req := httptest.NewRequest(reqMethod, path, nil)
	req.Header.Set("Origin", origin)
	if preflight {
		req.Header.Set("Access-Control-Request-Method", method)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	allowed := w.Header().Get("Access-Control-Allow-Origin") != ""
	fmt.Fprintf(out, "Request: %s %s (origin %s)\n", reqMethod, path, origin)
	if allowed {
		fmt.Fprintln(out, "Decision: allowed")
	} else {
		fmt.Fprintln(out, "Decision: rejected")
	}
	fmt.Fprintf(out, "Status: %d\n", w.Code)
	fmt.Fprintf(out, "Reached handler: %v\n", reached)

	keys := make([]string, 0, len(w.Header()))
	for k := range w.Header() {
		if strings.HasPrefix(k, "Access-Control-") || k == "Vary" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, strings.Join(w.Header().Values(k), ", "))
	}
}
