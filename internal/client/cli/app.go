package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/objsync/internal/client/client"
	"github.com/dmitrijs2005/objsync/internal/client/config"
	"github.com/dmitrijs2005/objsync/internal/client/metrics"
	"github.com/dmitrijs2005/objsync/internal/client/transfer"
	"github.com/dmitrijs2005/objsync/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config   *config.Config
	log      logging.Logger
	auth     *client.Authenticator
	tokens   *client.TokenHolder
	pinger   pinger
	session  *transfer.Session
	registry *prometheus.Registry
	reader   *bufio.Reader
	out      io.Writer
	closers  []func() error

	mu       sync.Mutex
	userName string
	mode     Mode
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	tokens := &client.TokenHolder{}
	authenticator := client.NewAuthenticator(c.AuthURL, c.AppID, httpClient, log, m)

	grpcClient, err := client.NewGRPCClient(c.ServerEndpointAddr, tokens, authenticator, log)
	if err != nil {
		return nil, err
	}

	session := transfer.NewSession(transfer.Options{
		HTTPClient:  tokens.HTTPClient(http.DefaultTransport),
		Logger:      log,
		Metrics:     m,
		Concurrency: c.TransferConcurrency,
	})

	return &App{
		config:   c,
		log:      log,
		auth:     authenticator,
		tokens:   tokens,
		pinger:   grpcClient,
		session:  session,
		registry: reg,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		closers:  []func() error{grpcClient.Close},
	}, nil
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) user() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
}

func (a *App) isLoggedIn() bool {
	_, ok := a.tokens.Access()
	return ok
}

// Run starts the transfer session and the connectivity watcher, then serves
// the REPL on stdin until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.session.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error(ctx, "transfer session stopped", "error", err)
		}
	}()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.log.Info(ctx, "objsync client started, type 'help' for commands")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	a.session.Close()
	<-done
	for _, c := range a.closers {
		_ = c()
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
