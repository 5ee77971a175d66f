// Package config loads runtime configuration for the chatkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file (see LoadDotEnv); values never override variables already
//     present in the process environment.
//  3. An optional JSON file selected with --config.
//  4. CHATKEEPER_* environment variables, e.g. CHATKEEPER_SERVER_URL.
//  5. Command-line flags registered by BindFlags.
//
// # JSON schema
//
// Keys match the viper keys declared in this package. Durations are strings
// understood by time.ParseDuration:
//
//	{
//	  "db_path": "/home/me/.config/chatkeeper/chatkeeper.db",
//	  "server_url": "https://chat.example.com/api",
//	  "request_timeout": "30s",
//	  "sync_interval": "1m"
//	}
package config
