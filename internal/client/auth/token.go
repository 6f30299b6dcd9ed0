package auth

import (
	"bytes"
	"errors"
	"slices"
	"time"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Permission is an access right granted by a token.
type Permission string

const (
	PermissionDownload Permission = "download"
	PermissionUpload   Permission = "upload"
	PermissionManage   Permission = "manage"
)

var (
	errTokenNotObject  = errors.New("token is not a JSON object")
	errMissingToken    = errors.New(`missing "token"`)
	errMissingData     = errors.New(`missing "token_data"`)
	errMissingIdentity = errors.New(`missing "token_data.identity"`)
	errMissingExpires  = errors.New(`missing "token_data.expires"`)
)

// Token is one credential issued by the auth server. The zero value is not a
// valid token; use TokenFrom.
type Token struct {
	value     string
	identity  string
	path      string
	expiresAt time.Time
	access    []Permission
	isAdmin   bool
}

type tokenDoc struct {
	Token *string       `json:"token"`
	Data  *tokenDataDoc `json:"token_data"`
}

type tokenDataDoc struct {
	Identity *string      `json:"identity"`
	Path     string       `json:"path"`
	Expires  *int64       `json:"expires"`
	Access   []Permission `json:"access"`
	IsAdmin  bool         `json:"is_admin"`
}

// TokenFrom decodes a token object:
//
//	{"token": "...", "token_data": {"identity": "...", "path": "/~/x",
//	  "expires": 1700000000, "access": ["download", "upload"], "is_admin": false}}
//
// token, token_data, identity and expires are required. Any failure is
// returned as a KindParse *apierr.Error.
func TokenFrom(raw []byte) (Token, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return Token{}, apierr.NewParse(errTokenNotObject)
	}

	var doc tokenDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Token{}, apierr.NewParse(err)
	}

	switch {
	case doc.Token == nil:
		return Token{}, apierr.NewParse(errMissingToken)
	case doc.Data == nil:
		return Token{}, apierr.NewParse(errMissingData)
	case doc.Data.Identity == nil:
		return Token{}, apierr.NewParse(errMissingIdentity)
	case doc.Data.Expires == nil:
		return Token{}, apierr.NewParse(errMissingExpires)
	}

	return Token{
		value:     *doc.Token,
		identity:  *doc.Data.Identity,
		path:      doc.Data.Path,
		expiresAt: time.Unix(*doc.Data.Expires, 0).UTC(),
		access:    slices.Clone(doc.Data.Access),
		isAdmin:   doc.Data.IsAdmin,
	}, nil
}

// Value is the opaque credential sent to the server.
func (t Token) Value() string { return t.value }

func (t Token) Identity() string { return t.identity }

// Path is the server path the token is scoped to; empty for user tokens.
func (t Token) Path() string { return t.path }

func (t Token) ExpiresAt() time.Time { return t.expiresAt }

func (t Token) IsAdmin() bool { return t.isAdmin }

// Access returns a copy of the granted permissions.
func (t Token) Access() []Permission { return slices.Clone(t.access) }

func (t Token) Has(p Permission) bool { return slices.Contains(t.access, p) }

// IsExpired reports whether the token is expired at now, or will be within margin.
func (t Token) IsExpired(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(t.expiresAt)
}

// Claims decodes the token value as a JWT without verifying its signature.
// Servers that issue opaque tokens make this return an error.
func (t Token) Claims() (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.value, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t Token) String() string {
	return "Token{identity=" + t.identity + ", path=" + t.path + ", expires=" + t.expiresAt.Format(time.RFC3339) + "}"
}
