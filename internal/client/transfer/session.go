// Package transfer moves file payloads between the client and the object
// server over HTTP and reports progress through a progress.Registry.
//
// A Session keeps cumulative per-direction counters: every transfer started
// adds its size to the transferable total and every byte read adds to the
// transferred count. Listeners therefore see one stream per direction, not
// one per file. Failures are returned to the caller; listeners only ever see
// progress.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/client/metrics"
	"github.com/dmitrijs2005/objsync/internal/client/progress"
	"github.com/dmitrijs2005/objsync/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	errorBodyLimit = 4 << 10

	unknownLengthPending = 1
)

type counters struct {
	transferred  atomic.Int64
	transferable atomic.Int64
}

type Options struct {
	// HTTPClient performs the transfers; nil means http.DefaultClient.
	HTTPClient *http.Client
	Logger     logging.Logger
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Concurrency bounds parallel transfers in Sync; values below 1 mean 1.
	Concurrency int
}

type Session struct {
	client      *http.Client
	log         logging.Logger
	metrics     *metrics.Metrics
	concurrency int

	registry   *progress.Registry
	dispatcher *progress.Dispatcher
	streams    [2]counters
}

func NewSession(opts Options) *Session {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscard()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	registry := progress.NewRegistry(opts.Logger)
	return &Session{
		client:      opts.HTTPClient,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		concurrency: opts.Concurrency,
		registry:    registry,
		dispatcher:  progress.NewDispatcher(registry),
	}
}

// Run delivers progress to listeners until ctx is done or Close is called.
func (s *Session) Run(ctx context.Context) error {
	return s.dispatcher.Run(ctx)
}

// Close ends Run after the pending snapshots are delivered.
func (s *Session) Close() {
	s.dispatcher.Close()
}

// AddProgressListener registers l and immediately queues the current state of
// dir, so a CurrentChanges listener on an idle stream completes right away.
func (s *Session) AddProgressListener(dir progress.Direction, mode progress.Mode, l progress.Listener) progress.Registration {
	var reg progress.Registration
	if mode == progress.CurrentChanges {
		reg = s.registry.AddPinned(dir, s.stream(dir).transferable.Load(), l)
	} else {
		reg = s.registry.Add(dir, mode, l)
	}
	s.publish(dir)
	return reg
}

// WaitDelivered blocks until every listener of dir has been handed a snapshot
// in which the work started so far is complete, or ctx is done. Run must be
// serving the session.
func (s *Session) WaitDelivered(ctx context.Context, dir progress.Direction) error {
	done := make(chan struct{})
	var once sync.Once
	reg := s.AddProgressListener(dir, progress.CurrentChanges, progress.ListenerFunc(func(p progress.Progress) {
		if p.IsTransferComplete() {
			once.Do(func() { close(done) })
		}
	}))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.RemoveProgressListener(reg)
		return ctx.Err()
	}
}

// RemoveProgressListener is safe to call from inside the listener itself.
func (s *Session) RemoveProgressListener(reg progress.Registration) bool {
	return s.registry.Remove(reg)
}

// Snapshot returns the current state of dir without waiting for delivery.
func (s *Session) Snapshot(dir progress.Direction) progress.Progress {
	c := s.stream(dir)
	return progress.New(dir, c.transferred.Load(), c.transferable.Load())
}

func (s *Session) stream(dir progress.Direction) *counters {
	if dir == progress.Upload {
		return &s.streams[1]
	}
	return &s.streams[0]
}

func (s *Session) publish(dir progress.Direction) {
	s.dispatcher.Publish(s.Snapshot(dir))
}

func (s *Session) grow(dir progress.Direction, n int64) {
	if n <= 0 {
		return
	}
	s.stream(dir).transferable.Add(n)
	s.publish(dir)
}

// abandon drops work that will not happen because a transfer failed.
func (s *Session) abandon(dir progress.Direction, n int64) {
	if n <= 0 {
		return
	}
	s.stream(dir).transferable.Add(-n)
	s.publish(dir)
}

func (s *Session) advance(dir progress.Direction, n int) {
	s.stream(dir).transferred.Add(int64(n))
	if s.metrics != nil {
		s.metrics.Transferred(dir.String(), n)
	}
	s.publish(dir)
}

// countingReader reports every successful read to onRead.
type countingReader struct {
	r      io.Reader
	n      atomic.Int64
	onRead func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n.Add(int64(n))
		c.onRead(n)
	}
	return n, err
}

// Upload PUTs size bytes from r to url.
func (s *Session) Upload(ctx context.Context, url string, r io.Reader, size int64) error {
	s.grow(progress.Upload, size)

	body := &countingReader{r: r, onRead: func(n int) { s.advance(progress.Upload, n) }}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		s.abandon(progress.Upload, size)
		return fmt.Errorf("upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		s.abandon(progress.Upload, size-body.n.Load())
		return fmt.Errorf("upload %s: %w", url, apierr.NewIO(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		s.abandon(progress.Upload, size-body.n.Load())
		return fmt.Errorf("upload %s: %w", url, statusError(resp))
	}

	s.log.Debug(ctx, "upload finished", "url", url, "bytes", body.n.Load())
	return nil
}

// Download GETs url into w and returns the number of bytes written.
func (s *Session) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, apierr.NewIO(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("download %s: %w", url, statusError(resp))
	}

	// With an unknown length the stream stays one byte short of complete
	// until EOF, when the placeholder byte is dropped.
	size := resp.ContentLength
	if size < 0 {
		s.grow(progress.Download, unknownLengthPending)
	} else {
		s.grow(progress.Download, size)
	}

	body := &countingReader{r: resp.Body, onRead: func(n int) {
		if size < 0 {
			s.stream(progress.Download).transferable.Add(int64(n))
		}
		s.advance(progress.Download, n)
	}}

	n, err := io.Copy(w, body)
	if size < 0 {
		s.abandon(progress.Download, unknownLengthPending)
	}
	if err != nil {
		if size > 0 {
			s.abandon(progress.Download, size-body.n.Load())
		}
		return n, fmt.Errorf("download %s: %w", url, apierr.NewIO(err))
	}

	s.log.Debug(ctx, "download finished", "url", url, "bytes", n)
	return n, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return apierr.FromResponse(string(b), resp.StatusCode)
}

// Task is one unit of work for Sync. Uploads read Size bytes from Reader,
// downloads write into Writer.
type Task struct {
	Direction progress.Direction
	URL       string
	Reader    io.Reader
	Size      int64
	Writer    io.Writer
}

// Sync runs tasks with at most Options.Concurrency in flight and returns the
// first failure. Remaining tasks are cancelled once one fails.
func (s *Session) Sync(ctx context.Context, tasks []Task) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, t := range tasks {
		g.Go(func() error {
			if t.Direction == progress.Upload {
				return s.Upload(ctx, t.URL, t.Reader, t.Size)
			}
			_, err := s.Download(ctx, t.URL, t.Writer)
			return err
		})
	}
	return g.Wait()
}
