package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/custodykeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Tokens are
// deliberately absent; they do not belong in files.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	Timeout            timex.Duration `json:"timeout"`
	DatabaseDSN        string         `json:"database_dsn"`
}

// parseJson overlays cfg with the non-empty values found in the file at path.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	return nil
}
