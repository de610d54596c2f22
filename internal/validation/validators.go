package validation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/benvon/emp-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Register custom validators
	// These should never fail in normal operation
	if err := Validate.RegisterValidation("cors_origin", validateCorsOrigin); err != nil {
		panic(fmt.Sprintf("failed to register cors_origin validator: %v", err))
	}
	if err := Validate.RegisterValidation("http_method", validateHTTPMethod); err != nil {
		panic(fmt.Sprintf("failed to register http_method validator: %v", err))
	}
}

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

func validateCorsOrigin(fl validator.FieldLevel) bool {
	return ValidateOrigin(fl.Field().String()) == nil
}

func validateHTTPMethod(fl validator.FieldLevel) bool {
	_, ok := knownMethods[fl.Field().String()]
	return ok
}

// ValidateOrigin checks that value is a serialized origin: scheme://host[:port] with no path,
// query, fragment or credentials.
func ValidateOrigin(value string) error {
	if value == "" {
		return errors.New("origin is empty")
	}
	if value == "*" {
		return errors.New("wildcard origin is not allowed")
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid origin %q: scheme must be http or https", value)
	}
	if u.Host == "" || u.Hostname() == "" {
		return fmt.Errorf("invalid origin %q: host is required", value)
	}
	if u.User != nil {
		return fmt.Errorf("invalid origin %q: credentials are not allowed", value)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || strings.HasSuffix(value, "?") || strings.HasSuffix(value, "#") {
		return fmt.Errorf("invalid origin %q: path, query and fragment are not allowed", value)
	}
	return nil
}

// ValidateCorsPolicy validates a CORS policy and returns a readable error describing every
// failing field.
func ValidateCorsPolicy(p *models.CorsPolicy) error {
	if p == nil {
		return errors.New("cors policy is nil")
	}
	err := Validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate cors policy: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid cors policy: %s", strings.Join(msgs, "; "))
}
