package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/client/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(t *testing.T, code int, body string, got *authRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err == nil && got != nil {
			_ = json.Unmarshal(raw, got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticator_LoginSendsPasswordPayload(t *testing.T) {
	var got authRequest
	srv := authServer(t, 200, authBody("A1", "R1"), &got)
	m := metrics.New(nil)
	a := NewAuthenticator(srv.URL, "app-1", srv.Client(), nil, m)

	res := a.Login(context.Background(), "alice", []byte("secret"), false)

	require.False(t, res.HasError())
	acc, ok := res.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "A1", acc.Value())
	_, ok = res.RefreshToken()
	assert.True(t, ok)

	assert.Equal(t, providerPassword, got.Provider)
	assert.Equal(t, "alice", got.Data)
	require.NotNil(t, got.UserInfo)
	assert.Equal(t, "secret", got.UserInfo.Password)
	assert.False(t, got.UserInfo.Register)
	assert.Equal(t, "app-1", got.AppID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthResults.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestAuthenticator_RefreshSendsRefreshPayload(t *testing.T) {
	var got authRequest
	srv := authServer(t, 200, authBody("A2", ""), &got)
	a := NewAuthenticator(srv.URL, "", srv.Client(), nil, nil)

	res := a.Refresh(context.Background(), "R1", "/~/default")

	require.False(t, res.HasError())
	_, ok := res.RefreshToken()
	assert.False(t, ok)
	assert.Equal(t, providerRefresh, got.Provider)
	assert.Equal(t, "R1", got.Data)
	assert.Equal(t, "/~/default", got.Path)
	assert.Nil(t, got.UserInfo)
}

func TestAuthenticator_ProblemAnswerIsHTTPStatusError(t *testing.T) {
	srv := authServer(t, 401, `{"title":"The provided credentials are invalid.","code":611}`, nil)
	m := metrics.New(nil)
	a := NewAuthenticator(srv.URL, "", srv.Client(), nil, m)

	res := a.Login(context.Background(), "alice", []byte("wrong"), false)

	require.True(t, res.HasError())
	require.Equal(t, apierr.KindHTTPStatus, res.Err().Kind())
	require.Equal(t, apierr.CodeInvalidCredentials, res.Err().ServerCode())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthResults.WithLabelValues(apierr.KindHTTPStatus.String())))
}

func TestAuthenticator_BadPayloadIsParseFailure(t *testing.T) {
	srv := authServer(t, 200, `{"access_token":{"token_data":{}}}`, nil)
	a := NewAuthenticator(srv.URL, "", srv.Client(), nil, nil)

	res := a.Login(context.Background(), "alice", []byte("pw"), false)

	require.True(t, res.HasError())
	require.Equal(t, apierr.KindParse, res.Err().Kind())
}

func TestAuthenticator_UnreachableServerIsIOFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewAuthenticator(url, "", nil, nil, nil)
	res := a.Login(context.Background(), "alice", []byte("pw"), false)

	require.True(t, res.HasError())
	require.Equal(t, apierr.KindIO, res.Err().Kind())
	require.ErrorIs(t, res.Err(), apierr.ErrIO)
}
