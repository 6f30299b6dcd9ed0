package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dmitrijs2005/objsync/internal/client/progress"
	"github.com/dmitrijs2005/objsync/internal/common"
	"github.com/dmitrijs2005/objsync/internal/filex"
)

const printFlushTimeout = 2 * time.Second

func (a *App) progressPrinter(label string) progress.Listener {
	return progress.ListenerFunc(func(p progress.Progress) {
		fmt.Fprintf(a.out, "%s: %s\n", label, p)
	})
}

// stopPrinting removes a progress printer once the last snapshot of its
// direction has reached it.
func (a *App) stopPrinting(ctx context.Context, reg progress.Registration) {
	ctx, cancel := context.WithTimeout(ctx, printFlushTimeout)
	defer cancel()

	if err := a.session.WaitDelivered(ctx, reg.Direction()); err != nil {
		a.log.Debug(ctx, "progress not flushed", "direction", reg.Direction().String(), "error", err)
	}
	a.session.RemoveProgressListener(reg)
}

func (a *App) Upload(ctx context.Context, file, rawURL string) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	reg := a.session.AddProgressListener(progress.Upload, progress.IndefinitelyChanges, a.progressPrinter(file))
	defer a.stopPrinting(ctx, reg)

	if err := a.session.Upload(ctx, rawURL, f, fi.Size()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes)\n", file, fi.Size())
	return nil
}

func (a *App) Download(ctx context.Context, rawURL, name string) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}

	dir, err := filex.EnsureDir(a.config.DownloadDir)
	if err != nil {
		return err
	}
	if name == "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		name = path.Base(u.Path)
	}

	f, err := filex.CreateIn(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()

	reg := a.session.AddProgressListener(progress.Download, progress.IndefinitelyChanges, a.progressPrinter(name))
	defer a.stopPrinting(ctx, reg)

	n, err := a.session.Download(ctx, rawURL, f)
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	fmt.Fprintf(a.out, "Downloaded %s (%d bytes)\n", f.Name(), n)
	return nil
}
