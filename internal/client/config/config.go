package config

import (
	"time"
)

// Config holds runtime settings for the objsync client.
type Config struct {
	ServerEndpointAddr  string
	AuthURL             string
	AppID               string
	TransferConcurrency int
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
	DownloadDir         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AuthURL = "http://127.0.0.1:9080/auth"
	c.AppID = ""
	c.TransferConcurrency = 4
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
	c.DownloadDir = "downloads"
}

// Load builds a Config from defaults, then the JSON file named by -c or
// -config, then OBJSYNC_* environment variables (a .env file in the working
// directory is read first when present), then flags. Later sources win.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
