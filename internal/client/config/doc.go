// Package config loads runtime configuration for the objsync client.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. OBJSYNC_* environment variables, including those from a .env file.
//  4. Command-line flags.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. Keys left out keep their previous value:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "auth_url": "http://127.0.0.1:9080/auth",
//	  "app_id": "objsync-cli",
//	  "transfer_concurrency": 4,
//	  "request_timeout": "30s",
//	  "online_check_interval": "3s",
//	  "log_level": "info",
//	  "download_dir": "downloads"
//	}
package config
