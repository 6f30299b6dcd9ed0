package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/objsync/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-a string   address and port of the sync server
//	-u string   URL of the auth endpoint
//	-n string   application id sent with auth requests
//	-t int      number of concurrent transfers
//	-l string   log level (debug, info, warn, error)
//	-i int      online check interval in seconds
//
// Flags owned by other loaders are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-u", "-n", "-t", "-l", "-i")

	fs := flag.NewFlagSet("objsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AuthURL, "u", cfg.AuthURL, "auth endpoint URL")
	fs.StringVar(&cfg.AppID, "n", cfg.AppID, "application id")
	fs.IntVar(&cfg.TransferConcurrency, "t", cfg.TransferConcurrency, "concurrent transfers")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
