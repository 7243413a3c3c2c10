package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for custodyctl.
//
// SessionToken and OperatorToken are usually supplied per invocation through
// the environment so they stay out of shell history.
type Config struct {
	ServerEndpointAddr string
	Timeout            time.Duration

	SessionToken  string
	OperatorToken string

	// DatabaseDSN and SecretKey are only used by the offline admin commands
	// (migrate, token).
	DatabaseDSN string
	SecretKey   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Timeout = 10 * time.Second
}

var envFile = ".env"

func parseEnv(c *Config) {
	_ = godotenv.Load(envFile)

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	str("CUSTODYCTL_ADDR", &c.ServerEndpointAddr)
	str("CUSTODYCTL_SESSION", &c.SessionToken)
	str("CUSTODYCTL_OPERATOR_TOKEN", &c.OperatorToken)
	str("CUSTODY_DATABASE_DSN", &c.DatabaseDSN)
	str("CUSTODY_SECRET_KEY", &c.SecretKey)

	if v, ok := os.LookupEnv("CUSTODYCTL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		c.Timeout = d
	}
}

// LoadConfig applies defaults, then environment, then the JSON file at path
// when path is not empty.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
