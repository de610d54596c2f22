package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/emp-backend/internal/models"
	"github.com/benvon/emp-backend/internal/validation"
	"gopkg.in/yaml.v3"
)

// LoadCorsPolicy returns the CORS policy for the process. With an empty path the built-in
// defaults are used. Otherwise the YAML file at path is layered over the defaults, so a file
// only needs the keys it changes.
func LoadCorsPolicy(path string) (*models.CorsPolicy, error) {
	policy := models.DefaultCorsPolicy()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cors config file: %w", err)
		}
		if err := decodeCorsPolicy(data, policy); err != nil {
			return nil, fmt.Errorf("parse cors config file %s: %w", path, err)
		}
	}

	if err := validation.ValidateCorsPolicy(policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func decodeCorsPolicy(data []byte, policy *models.CorsPolicy) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(policy); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// MarshalCorsPolicy renders a policy in the same YAML layout LoadCorsPolicy accepts.
func MarshalCorsPolicy(policy *models.CorsPolicy) ([]byte, error) {
	return yaml.Marshal(policy)
}
