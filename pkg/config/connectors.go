package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"payrouter/pkg/connectors"
)

// DefaultEndpoints are the sandbox endpoints used when no connectors file is
// configured.
var DefaultEndpoints = map[string]connectors.Endpoints{
	"creditbanco": {
		BaseURL:          "https://sandbox-auth.creditbanco.example/",
		SecondaryBaseURL: "https://sandbox-api.creditbanco.example/",
	},
	"payrabbit": {
		BaseURL: "https://sandbox.payrabbit.example/",
	},
}

type connectorsFile struct {
	Connectors map[string]connectors.Endpoints `yaml:"connectors"`
}

// LoadConnectors reads per-connector endpoints from a YAML file shaped as
//
//	connectors:
//	  creditbanco:
//	    base_url: https://...
//	    secondary_base_url: https://...
//
// Connectors missing from the file keep their defaults. An empty path returns
// the defaults.
func LoadConnectors(path string) (map[string]connectors.Endpoints, error) {
	out := make(map[string]connectors.Endpoints, len(DefaultEndpoints))
	for id, ep := range DefaultEndpoints {
		out[id] = ep
	}
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connectors file: %w", err)
	}
	var f connectorsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse connectors file %s: %w", path, err)
	}
	for id, ep := range f.Connectors {
		if ep.BaseURL == "" {
			return nil, fmt.Errorf("connector %s: base_url is required", id)
		}
		out[id] = ep
	}
	return out, nil
}
