package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/logging"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

var errNotObject = errors.New("authenticate response is not a JSON object")

// Response is the raw answer of the auth endpoint as seen by CreateFrom.
// Body may fail, e.g. when the connection drops while the body is streamed.
type Response interface {
	StatusCode() int
	Body() (string, error)
}

// Result is the outcome of one authenticate call: either a classified error,
// or the tokens the server returned. It is decided once in CreateFrom or
// Failed and never changes afterwards, so it can be shared between goroutines.
type Result struct {
	err        *apierr.Error
	access     Token
	hasAccess  bool
	refresh    Token
	hasRefresh bool
}

// Failed returns a result for a request that failed before any response
// could be obtained.
func Failed(err *apierr.Error) *Result {
	return &Result{err: err}
}

// CreateFrom classifies resp. It always returns a result; failures are
// reported through Err, never as a panic or a second return value.
//
// The order is fixed: a body that cannot be read is an I/O failure whatever
// the status; a readable non-200 answer is an HTTP status error; only a 200
// answer is decoded, and a decoding failure is a parse failure. On success a
// token is present exactly when its field was in the payload.
func CreateFrom(ctx context.Context, resp Response, log logging.Logger) *Result {
	if log == nil {
		log = logging.NewDiscard()
	}

	body, err := resp.Body()
	if err != nil {
		log.Warn(ctx, "authenticate response unreadable", "error", err)
		return Failed(apierr.NewIO(err))
	}

	code := resp.StatusCode()
	if code != http.StatusOK {
		log.Debug(ctx, "authenticate response", "status", code, "body", body)
		return Failed(apierr.FromResponse(body, code))
	}
	log.Debug(ctx, "authenticate response", "status", code, "bytes", len(body))

	return parseTokens(body)
}

// tokenFields is the authenticate payload reduced to which token objects
// are present and their raw JSON.
type tokenFields struct {
	access, refresh       jsoniter.RawMessage
	hasAccess, hasRefresh bool
}

func readTokenFields(body string) (tokenFields, error) {
	if !strings.HasPrefix(strings.TrimSpace(body), "{") {
		return tokenFields{}, errNotObject
	}

	var obj map[string]jsoniter.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return tokenFields{}, err
	}

	var f tokenFields
	f.access, f.hasAccess = obj[fieldAccessToken]
	f.refresh, f.hasRefresh = obj[fieldRefreshToken]
	return f, nil
}

func parseTokens(body string) *Result {
	fields, err := readTokenFields(body)
	if err != nil {
		return Failed(apierr.NewParse(err))
	}

	r := &Result{}
	if fields.hasAccess {
		if r.access, err = TokenFrom(fields.access); err != nil {
			return Failed(asAPIError(err))
		}
		r.hasAccess = true
	}
	if fields.hasRefresh {
		if r.refresh, err = TokenFrom(fields.refresh); err != nil {
			return Failed(asAPIError(err))
		}
		r.hasRefresh = true
	}
	return r
}

func asAPIError(err error) *apierr.Error {
	var e *apierr.Error
	if errors.As(err, &e) {
		return e
	}
	return apierr.NewParse(err)
}

// AccessToken returns the access token and whether the server sent one.
func (r *Result) AccessToken() (Token, bool) { return r.access, r.hasAccess }

// RefreshToken returns the refresh token and whether the server sent one.
func (r *Result) RefreshToken() (Token, bool) { return r.refresh, r.hasRefresh }

// Err returns the classified failure, or nil on success.
func (r *Result) Err() *apierr.Error { return r.err }

func (r *Result) HasError() bool { return r.err != nil }

// OAuth2Token converts a successful result for use with golang.org/x/oauth2.
// It returns nil when the result has an error or no access token.
func (r *Result) OAuth2Token() *oauth2.Token {
	if r.HasError() || !r.hasAccess {
		return nil
	}
	t := &oauth2.Token{
		AccessToken: r.access.Value(),
		TokenType:   "Bearer",
		Expiry:      r.access.ExpiresAt(),
	}
	if r.hasRefresh {
		t.RefreshToken = r.refresh.Value()
	}
	return t
}
