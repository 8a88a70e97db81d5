package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the gophauth CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - SessionFile: SQLite file that keeps the session between invocations.
//   - RequestTimeout: deadline of a single command's server calls.
type Config struct {
	ServerEndpointAddr string
	SessionFile        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = "gophauth-session.db"
	c.RequestTimeout = 10 * time.Second
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the JSON file at jsonPath (if not empty) and the environment. A .env file
// in the working directory is honored. Command-line flags are applied on top
// by the caller.
func LoadConfig(jsonPath string) (*Config, error) {
	_ = godotenv.Load()
	return Load(jsonPath, os.LookupEnv)
}

func Load(jsonPath string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

const envPrefix = "GOPHAUTH_"

func parseEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(envPrefix + "SERVER_ADDR"); ok {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := lookup(envPrefix + "SESSION_FILE"); ok {
		cfg.SessionFile = v
	}
	if v, ok := lookup(envPrefix + "REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
