package config

import (
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/partiplan"
)

const DefaultPath = "~/.partiplan/config.yml"

type TableConfig struct {
	Name string `yaml:"name"`
	// ID is generated when left empty.
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"`
	PrimaryKey []string `yaml:"primaryKey"`
}

type PassConfig struct {
	Name    string                 `yaml:"name"`
	Options map[string]interface{} `yaml:"options"`
}

type OptimizerConfig struct {
	Debug bool `yaml:"debug"`
	// MaxRounds bounds how many times the pass list is repeated while it keeps changing the plan.
	MaxRounds int          `yaml:"maxRounds"`
	Passes    []PassConfig `yaml:"passes"`
}

type Config struct {
	LogLevel  string          `yaml:"logLevel"`
	Tables    []TableConfig   `yaml:"tables"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

// ReadConfig reads the configuration file at path, expanding a leading ~.
func ReadConfig(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't expand path %s", path)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (*Config, error) {
	var config Config

	if err := yaml.NewDecoder(r).Decode(&config); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	return &config, nil
}

// Catalog builds a catalog holding all configured tables.
func (config *Config) Catalog() (*catalog.Catalog, error) {
	out := catalog.New()
	for i, table := range config.Tables {
		t, err := partiplan.ParseType(table.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid type of table %d (%s)", i, table.Name)
		}
		if _, err := out.Add(catalog.Table{
			ID:         table.ID,
			Name:       table.Name,
			Type:       t,
			PrimaryKey: table.PrimaryKey,
		}); err != nil {
			return nil, errors.Wrapf(err, "couldn't add table %d (%s)", i, table.Name)
		}
	}
	return out, nil
}
