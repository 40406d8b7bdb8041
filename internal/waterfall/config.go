package waterfall

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Sadiq-Teslim/linq-sub000/internal/provider"
)

// Config is the waterfall priority table: for each field, the ordered list
// of adapter names to consult. The chain is data, not code; swapping vendor
// precedence is a config change.
type Config struct {
	Fields map[FieldKey][]string `yaml:"fields"`
}

// DefaultConfig returns the built-in priority table. The structured API
// outranks the directory for both fields; neither the profile network nor
// web search ever supplies emails or phones, so they are absent here.
func DefaultConfig() *Config {
	return &Config{
		Fields: map[FieldKey][]string{
			FieldEmail: {provider.SourceApollo, provider.SourceHunter},
			FieldPhone: {provider.SourceApollo, provider.SourceHunter},
		},
	}
}

// LoadConfig reads a priority table from a YAML file. Fields missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}

	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := DefaultConfig()
	for field, sources := range wrapper.Waterfall.Fields {
		cfg.Fields[field] = sources
	}
	return cfg, nil
}

// Sources returns the configured chain for a field.
func (c *Config) Sources(field FieldKey) []string {
	return c.Fields[field]
}
