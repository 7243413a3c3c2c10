// Package config loads runtime configuration for custodyctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. CUSTODYCTL_* environment variables, optionally from a .env file.
//  3. Optional JSON file passed to LoadConfig.
//
// Command-line flags are bound by the cli package and override all of the
// above.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "timeout": "10s"
//	}
package config
