package client

import (
	"net/http"
	"sync"

	"github.com/dmitrijs2005/objsync/internal/client/auth"
	"github.com/dmitrijs2005/objsync/internal/common"
	"golang.org/x/oauth2"
)

// TokenHolder keeps the current token pair in memory.
type TokenHolder struct {
	mu         sync.RWMutex
	access     auth.Token
	hasAccess  bool
	refresh    auth.Token
	hasRefresh bool
}

// Store takes the tokens of a successful result. A result without a refresh
// token keeps the one already held, which is what refresh answers look like.
// A failed result changes nothing and its error is returned.
func (h *TokenHolder) Store(res *auth.Result) error {
	if res.HasError() {
		return res.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := res.AccessToken(); ok {
		h.access, h.hasAccess = t, true
	}
	if t, ok := res.RefreshToken(); ok {
		h.refresh, h.hasRefresh = t, true
	}
	return nil
}

func (h *TokenHolder) Access() (auth.Token, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.access, h.hasAccess
}

func (h *TokenHolder) Refresh() (auth.Token, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.refresh, h.hasRefresh
}

func (h *TokenHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.access, h.hasAccess = auth.Token{}, false
	h.refresh, h.hasRefresh = auth.Token{}, false
}

// Token implements oauth2.TokenSource.
func (h *TokenHolder) Token() (*oauth2.Token, error) {
	t, ok := h.Access()
	if !ok {
		return nil, common.ErrNotLoggedIn
	}
	return &oauth2.Token{AccessToken: t.Value(), TokenType: "Bearer", Expiry: t.ExpiresAt()}, nil
}

// HTTPClient returns a client that sends the held access token as a bearer
// token on every request.
func (h *TokenHolder) HTTPClient(base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &oauth2.Transport{Source: h, Base: base}}
}
