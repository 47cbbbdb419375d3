package registry

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Load reads, validates and indexes a registry from the YAML file at path.
// Validation failure is fatal to the caller by contract: no evaluation may
// run against an invalid registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	return Parse(data)
}

// LoadDefault parses the embedded default registry.
func LoadDefault() (*Registry, error) {
	return Parse(defaultsYAML)
}

// Parse decodes and validates registry YAML.
func Parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "registry: decode yaml")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	zap.L().Info("registry loaded",
		zap.String("version", r.Version),
		zap.Int("indicators", len(r.Indicators)),
		zap.Int("jurisdictions", len(r.Jurisdictions)),
	)
	return &r, nil
}
