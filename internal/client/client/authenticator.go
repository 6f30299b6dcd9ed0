package client

import (
	"bytes"
	"context"
	"net/http"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/client/auth"
	"github.com/dmitrijs2005/objsync/internal/client/metrics"
	"github.com/dmitrijs2005/objsync/internal/common"
	"github.com/dmitrijs2005/objsync/internal/logging"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	providerPassword = "password"
	providerRefresh  = "realm"
)

type authRequest struct {
	Provider string    `json:"provider"`
	Data     string    `json:"data"`
	UserInfo *userInfo `json:"user_info,omitempty"`
	Path     string    `json:"path,omitempty"`
	AppID    string    `json:"app_id,omitempty"`
}

type userInfo struct {
	Register bool   `json:"register"`
	Password string `json:"password"`
}

// Authenticator talks to the auth endpoint of the object server.
type Authenticator struct {
	url     string
	appID   string
	http    *http.Client
	log     logging.Logger
	metrics *metrics.Metrics
}

// NewAuthenticator returns an Authenticator posting to authURL. httpClient,
// log and m may be nil.
func NewAuthenticator(authURL, appID string, httpClient *http.Client, log logging.Logger, m *metrics.Metrics) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Authenticator{url: authURL, appID: appID, http: httpClient, log: log, metrics: m}
}

// Login authenticates with a username and password. Set register to create
// the account first.
func (a *Authenticator) Login(ctx context.Context, username string, password []byte, register bool) *auth.Result {
	return a.authenticate(ctx, authRequest{
		Provider: providerPassword,
		Data:     username,
		UserInfo: &userInfo{Register: register, Password: string(password)},
		AppID:    a.appID,
	})
}

// Refresh exchanges a refresh token for a new access token, optionally
// scoped to a server path.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken, path string) *auth.Result {
	return a.authenticate(ctx, authRequest{
		Provider: providerRefresh,
		Data:     refreshToken,
		Path:     path,
		AppID:    a.appID,
	})
}

func (a *Authenticator) authenticate(ctx context.Context, payload authRequest) *auth.Result {
	res := a.do(ctx, payload)
	if a.metrics != nil {
		if res.HasError() {
			a.metrics.AuthOutcome(res.Err().Kind().String())
		} else {
			a.metrics.AuthOutcome(metrics.OutcomeSuccess)
		}
	}
	if res.HasError() {
		a.log.Warn(ctx, "authentication failed", "provider", payload.Provider, "kind", res.Err().Kind().String(), "error", res.Err())
	}
	return res
}

func (a *Authenticator) do(ctx context.Context, payload authRequest) *auth.Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return auth.Failed(apierr.NewParse(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return auth.Failed(apierr.NewIO(err))
	}
	req.Header.Set("Content-Type", common.JSONContentType)
	req.Header.Set("Accept", common.JSONContentType)

	resp, err := a.http.Do(req)
	if err != nil {
		return auth.Failed(apierr.NewIO(err))
	}

	return auth.CreateFrom(ctx, auth.NewHTTPResponse(resp), a.log)
}
