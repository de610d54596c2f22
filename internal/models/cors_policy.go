package models

import (
	"net/http"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
)

// Default CORS policy values
const (
	DefaultCorsPathPattern = "/**"
	DefaultCorsMaxAge      = 1800
)

// CorsPolicy is the cross-origin policy applied to inbound requests.
// It is built once at startup and must not be mutated afterwards.
type CorsPolicy struct {
	PathPattern      string   `json:"path_pattern" yaml:"path_pattern" validate:"required,startswith=/"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins" validate:"required,min=1,dive,required,cors_origin"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods" validate:"required,min=1,dive,required,http_method"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers" validate:"dive,required"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `json:"max_age" yaml:"max_age" validate:"gte=0"`
}

// DefaultCorsPolicy returns the built-in policy for the frontend deployments.
func DefaultCorsPolicy() *CorsPolicy {
	return &CorsPolicy{
		PathPattern: DefaultCorsPathPattern,
		AllowedOrigins: []string{
			"http://localhost:4200",
			"http://app.local",
			"http://app.prod.local",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           DefaultCorsMaxAge,
	}
}

// AllowsOrigin reports whether origin is allow-listed. Matching is exact and case-sensitive.
func (p *CorsPolicy) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range p.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// MatchesPath reports whether the request path falls under the policy's path pattern.
// "**" segments are treated like "*", which already spans slashes.
func (p *CorsPolicy) MatchesPath(path string) bool {
	pattern := p.PathPattern
	if pattern == "" {
		pattern = DefaultCorsPathPattern
	}
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	return wildcard.Match(pattern, path)
}

// MethodsHeader returns the Access-Control-Allow-Methods value.
func (p *CorsPolicy) MethodsHeader() string {
	return strings.Join(p.AllowedMethods, ", ")
}

// Clone returns a deep copy of the policy.
func (p *CorsPolicy) Clone() *CorsPolicy {
	c := *p
	c.AllowedOrigins = append([]string(nil), p.AllowedOrigins...)
	c.AllowedMethods = append([]string(nil), p.AllowedMethods...)
	c.AllowedHeaders = append([]string(nil), p.AllowedHeaders...)
	return &c
}
