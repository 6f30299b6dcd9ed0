package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/client/client"
	"github.com/dmitrijs2005/objsync/internal/client/config"
	"github.com/dmitrijs2005/objsync/internal/client/metrics"
	"github.com/dmitrijs2005/objsync/internal/client/progress"
	"github.com/dmitrijs2005/objsync/internal/client/transfer"
	"github.com/dmitrijs2005/objsync/internal/common"
	"github.com/dmitrijs2005/objsync/internal/logging"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakePinger struct {
	err atomic.Value
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if err, ok := f.err.Load().(error); ok {
		return err
	}
	return nil
}

func tokenJSON(value, identity string) string {
	return fmt.Sprintf(`{"token":%q,"token_data":{"identity":%q,"path":"/~/home","expires":%d,"access":["download","upload"]}}`,
		value, identity, time.Now().Add(time.Hour).Unix())
}

// newTestApp builds an App around authURL with a running transfer session.
// input feeds the prompts of interactive commands.
func newTestApp(t *testing.T, authURL, input string) (*App, *lockedBuffer) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tokens := &client.TokenHolder{}
	out := &lockedBuffer{}

	session := transfer.NewSession(transfer.Options{
		HTTPClient: tokens.HTTPClient(http.DefaultTransport),
		Metrics:    m,
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = session.Run(context.Background())
	}()
	t.Cleanup(func() {
		session.Close()
		<-done
	})

	a := &App{
		config:   &config.Config{DownloadDir: t.TempDir()},
		log:      logging.NewDiscard(),
		auth:     client.NewAuthenticator(authURL, "test-app", nil, nil, m),
		tokens:   tokens,
		pinger:   &fakePinger{},
		session:  session,
		registry: reg,
		reader:   rdr(input),
		out:      out,
	}
	return a, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func authServer(t *testing.T, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		code, resp := handler(body)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loginServer(t *testing.T) *httptest.Server {
	return authServer(t, func(body map[string]any) (int, string) {
		switch body["provider"] {
		case "password":
			if info, _ := body["user_info"].(map[string]any); info["password"] != "secret" {
				return 401, `{"title":"The provided credentials are invalid.","code":611,"hint":"check the password"}`
			}
			return 200, fmt.Sprintf(`{"access_token":%s,"refresh_token":%s}`, tokenJSON("A1", "alice"), tokenJSON("R1", "alice"))
		case "realm":
			if body["data"] != "R1" {
				return 401, `{"title":"expired","code":615}`
			}
			return 200, fmt.Sprintf(`{"access_token":%s}`, tokenJSON("A2", "alice"))
		}
		return 400, `{}`
	})
}

func TestLogin_StoresTokensAndUser(t *testing.T) {
	stubPassword(t, "secret")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")

	require.NoError(t, a.Login(context.Background()))

	require.True(t, a.isLoggedIn())
	require.Equal(t, "alice", a.user())
	require.Contains(t, out.String(), "Login successful")
	require.Equal(t, "(alice)", a.getStatus())
}

func TestLogin_WrongPasswordShowsTitleAndHint(t *testing.T) {
	stubPassword(t, "wrong")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")

	err := a.Login(context.Background())

	require.ErrorIs(t, err, apierr.ErrHTTPStatus)
	require.False(t, a.isLoggedIn())
	require.Contains(t, out.String(), "The provided credentials are invalid. (INVALID_CREDENTIALS)")
	require.Contains(t, out.String(), "Hint: check the password")
}

func TestLogin_UnreachableServer(t *testing.T) {
	stubPassword(t, "secret")
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	a, out := newTestApp(t, url, "alice\n")

	err := a.Login(context.Background())

	require.ErrorIs(t, err, apierr.ErrIO)
	require.Contains(t, out.String(), "Server unreachable")
}

func TestRegister_SendsRegisterFlag(t *testing.T) {
	stubPassword(t, "pw")
	var register atomic.Bool
	srv := authServer(t, func(body map[string]any) (int, string) {
		info, _ := body["user_info"].(map[string]any)
		register.Store(info["register"] == true)
		return 200, fmt.Sprintf(`{"access_token":%s}`, tokenJSON("A1", "bob"))
	})
	a, _ := newTestApp(t, srv.URL, "bob\n")

	require.NoError(t, a.Register(context.Background()))
	require.True(t, register.Load())
	require.Equal(t, "bob", a.user())
}

func TestRefreshAndLogout(t *testing.T) {
	stubPassword(t, "secret")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")
	ctx := context.Background()

	require.ErrorIs(t, a.Refresh(ctx), common.ErrNotLoggedIn)

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Refresh(ctx))

	tok, _ := a.tokens.Access()
	require.Equal(t, "A2", tok.Value())
	rt, _ := a.tokens.Refresh()
	require.Equal(t, "R1", rt.Value())
	require.Contains(t, out.String(), "Token refreshed")

	require.NoError(t, a.Logout(ctx))
	require.False(t, a.isLoggedIn())
	require.Empty(t, a.user())
	require.ErrorIs(t, a.Logout(ctx), common.ErrNotLoggedIn)
}

func TestStatus_PrintsTokenProgressAndCounters(t *testing.T) {
	stubPassword(t, "secret")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")
	ctx := context.Background()

	require.NoError(t, a.Status(ctx))
	require.Contains(t, out.String(), "not logged in")

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Status(ctx))

	s := out.String()
	require.Contains(t, s, "user: alice, token valid")
	require.Contains(t, s, "objsync_auth_results_total{outcome=success} 1")
}

func TestUploadAndDownload(t *testing.T) {
	payload := strings.Repeat("z", 64<<10)
	var gotAuth atomic.Value
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodPut:
			b, _ := io.ReadAll(r.Body)
			if string(b) != payload {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			_, _ = io.WriteString(w, payload)
		}
	}))
	defer files.Close()

	stubPassword(t, "secret")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(src, []byte(payload), 0o600))

	require.ErrorIs(t, a.Upload(ctx, src, files.URL+"/objects/data.bin"), common.ErrNotLoggedIn)
	require.NoError(t, a.Login(ctx))

	require.NoError(t, a.Upload(ctx, src, files.URL+"/objects/data.bin"))
	require.Equal(t, "Bearer A1", gotAuth.Load())

	require.NoError(t, a.Download(ctx, files.URL+"/objects/data.bin?v=1", ""))
	got, err := os.ReadFile(filepath.Join(a.config.DownloadDir, "data.bin"))
	require.NoError(t, err)
	require.Equal(t, payload, string(got))

	require.Contains(t, out.String(), "Uploaded")
	require.Contains(t, out.String(), "Downloaded")

	// printers are removed only after the completed snapshot reached them
	require.Contains(t, out.String(), fmt.Sprintf("%s: upload %d/%d complete=true", src, len(payload), len(payload)))
	require.Contains(t, out.String(), fmt.Sprintf("data.bin: download %d/%d complete=true", len(payload), len(payload)))
}

func TestUpload_PrintsFinalProgressBeforeReturning(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))
	defer files.Close()

	stubPassword(t, "secret")
	srv := loginServer(t)
	a, out := newTestApp(t, srv.URL, "alice\n")
	ctx := context.Background()
	require.NoError(t, a.Login(ctx))

	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		src := filepath.Join(dir, fmt.Sprintf("f%d.bin", i))
		require.NoError(t, os.WriteFile(src, []byte(strings.Repeat("q", 1000)), 0o600))

		require.NoError(t, a.Upload(ctx, src, files.URL+"/objects"))

		total := 1000 * (i + 1)
		require.Contains(t, out.String(), fmt.Sprintf("%s: upload %d/%d complete=true", src, total, total))
	}
	require.Equal(t, int64(5000), a.session.Snapshot(progress.Upload).Transferable())
}

func TestDownload_FailureRemovesFile(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer files.Close()

	stubPassword(t, "secret")
	srv := loginServer(t)
	a, _ := newTestApp(t, srv.URL, "alice\n")
	ctx := context.Background()
	require.NoError(t, a.Login(ctx))

	err := a.Download(ctx, files.URL+"/missing", "out.bin")
	require.ErrorIs(t, err, apierr.ErrHTTPStatus)

	_, statErr := os.Stat(filepath.Join(a.config.DownloadDir, "out.bin"))
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestCheckOnline_SwitchesMode(t *testing.T) {
	a, _ := newTestApp(t, "http://unused", "")
	p := a.pinger.(*fakePinger)
	ctx := context.Background()

	a.checkOnline(ctx)
	require.Equal(t, ModeOnline, a.Mode())

	p.err.Store(client.ErrUnavailable)
	a.checkOnline(ctx)
	require.Equal(t, ModeOffline, a.Mode())
	require.Equal(t, "(offline)", a.getStatus())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, "http://unused", "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
