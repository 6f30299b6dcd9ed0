package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/objsync/internal/client/auth"
	"github.com/stretchr/testify/require"
)

type staticResponse struct {
	code int
	body string
}

func (r staticResponse) StatusCode() int       { return r.code }
func (r staticResponse) Body() (string, error) { return r.body, nil }

func tokenJSON(value string) string {
	return fmt.Sprintf(`{"token":%q,"token_data":{"identity":"user-1","path":"","expires":1800000000,"access":["download","upload"]}}`, value)
}

func authBody(access, refresh string) string {
	switch {
	case access != "" && refresh != "":
		return fmt.Sprintf(`{"access_token":%s,"refresh_token":%s}`, tokenJSON(access), tokenJSON(refresh))
	case access != "":
		return fmt.Sprintf(`{"access_token":%s}`, tokenJSON(access))
	case refresh != "":
		return fmt.Sprintf(`{"refresh_token":%s}`, tokenJSON(refresh))
	}
	return `{}`
}

// result builds a successful result carrying the named tokens; an empty
// name leaves that token out.
func result(t *testing.T, access, refresh string) *auth.Result {
	t.Helper()
	res := auth.CreateFrom(context.Background(), staticResponse{code: 200, body: authBody(access, refresh)}, nil)
	require.False(t, res.HasError(), "%v", res.Err())
	return res
}

func holderWith(t *testing.T, access, refresh string) *TokenHolder {
	t.Helper()
	h := &TokenHolder{}
	require.NoError(t, h.Store(result(t, access, refresh)))
	return h
}
