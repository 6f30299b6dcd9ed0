package config

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/objsync/internal/flagx"
	"github.com/dmitrijs2005/objsync/internal/timex"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileConfig is the on-disk form. Pointer fields tell absent keys apart from
// zero values, so a partial file only overrides what it names.
type fileConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	AuthURL             *string         `json:"auth_url"`
	AppID               *string         `json:"app_id"`
	TransferConcurrency *int            `json:"transfer_concurrency"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LogLevel            *string         `json:"log_level"`
	DownloadDir         *string         `json:"download_dir"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	setIf(&cfg.ServerEndpointAddr, fc.ServerEndpointAddr)
	setIf(&cfg.AuthURL, fc.AuthURL)
	setIf(&cfg.AppID, fc.AppID)
	setIf(&cfg.TransferConcurrency, fc.TransferConcurrency)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.DownloadDir, fc.DownloadDir)
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
