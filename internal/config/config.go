package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/careops/substitute-planner/pkg/core/optimizer"
)

var validate = validator.New()

// Record source kinds
const (
	SourceJSONFile = "jsonfile"
	SourcePostgres = "postgres"
	SourceSheets   = "sheets"
)

// SheetsConfig configures the Google Sheets record source
type SheetsConfig struct {
	SpreadsheetID    string `yaml:"spreadsheetID" validate:"required"`
	EmployeesTab     string `yaml:"employeesTab" validate:"required"`
	ClientsTab       string `yaml:"clientsTab" validate:"required"`
	DistancesTab     string `yaml:"distancesTab" validate:"required"`
	SubstitutionsTab string `yaml:"substitutionsTab" validate:"required"`
	ExperienceTab    string `yaml:"experienceTab" validate:"required"`
	OAuthClientFile  string `yaml:"oauthClientFile" validate:"required"`
	TokenFile        string `yaml:"tokenFile" validate:"required"`
}

// PostgresConfig configures the PostgreSQL record source. The connection
// string is read from the named environment variable so credentials stay out
// of the config file.
type PostgresConfig struct {
	URLEnv string `yaml:"urlEnv"`
}

// HTTPConfig configures the request boundary
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the application configuration, loaded from config.<env>.yaml
type Config struct {
	Source   string         `yaml:"source" validate:"required,oneof=jsonfile postgres sheets"`
	DataDir  string         `yaml:"dataDir"`
	Postgres PostgresConfig `yaml:"postgres"`
	Sheets   *SheetsConfig  `yaml:"sheets,omitempty"`

	CacheDir        string `yaml:"cacheDir"`
	LogDir          string `yaml:"logDir"`
	NamesFile       string `yaml:"namesFile"`
	SchoolNamesFile string `yaml:"schoolNamesFile"`

	// MaxTravelMinutes is the threshold for the travel-time indicator icon
	// in rendered diff tables
	MaxTravelMinutes int `yaml:"maxTravelMinutes" validate:"min=0"`

	Weights optimizer.Weights `yaml:"weights"`

	HTTP HTTPConfig `yaml:"http"`
}

// Load reads and validates config.<env>.yaml from the working directory and
// fills in defaults for omitted sections
func Load(env string) (*Config, error) {
	path := fmt.Sprintf("config.%s.yaml", env)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a raw YAML config document
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Source == SourceSheets && cfg.Sheets == nil {
		return nil, fmt.Errorf("config validation failed: sheets source selected but sheets section missing")
	}
	if cfg.Sheets != nil {
		if err := validate.Struct(cfg.Sheets); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.NamesFile == "" {
		c.NamesFile = "data/name_mappings.json"
	}
	if c.SchoolNamesFile == "" {
		c.SchoolNamesFile = "data/school_name_mappings.json"
	}
	if c.MaxTravelMinutes == 0 {
		c.MaxTravelMinutes = 60
	}
	if c.Postgres.URLEnv == "" {
		c.Postgres.URLEnv = "DATABASE_URL"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":5000"
	}
	if (c.Weights == optimizer.Weights{}) {
		c.Weights = optimizer.DefaultWeights()
	}
}
