package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvServerAddr          = "OBJSYNC_SERVER_ADDR"
	EnvAuthURL             = "OBJSYNC_AUTH_URL"
	EnvAppID               = "OBJSYNC_APP_ID"
	EnvTransferConcurrency = "OBJSYNC_TRANSFER_CONCURRENCY"
	EnvRequestTimeout      = "OBJSYNC_REQUEST_TIMEOUT"
	EnvOnlineCheckInterval = "OBJSYNC_ONLINE_CHECK_INTERVAL"
	EnvLogLevel            = "OBJSYNC_LOG_LEVEL"
	EnvDownloadDir         = "OBJSYNC_DOWNLOAD_DIR"
)

// dotEnvFile is loaded into the process environment without overriding
// variables that are already set.
var dotEnvFile = ".env"

func parseEnv(cfg *Config) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	envString(&cfg.ServerEndpointAddr, EnvServerAddr)
	envString(&cfg.AuthURL, EnvAuthURL)
	envString(&cfg.AppID, EnvAppID)
	envString(&cfg.LogLevel, EnvLogLevel)
	envString(&cfg.DownloadDir, EnvDownloadDir)

	if v, ok := os.LookupEnv(EnvTransferConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTransferConcurrency, err)
		}
		cfg.TransferConcurrency = n
	}
	if err := envDuration(&cfg.RequestTimeout, EnvRequestTimeout); err != nil {
		return err
	}
	return envDuration(&cfg.OnlineCheckInterval, EnvOnlineCheckInterval)
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
