package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/objsync/internal/client/apierr"
	"github.com/dmitrijs2005/objsync/internal/client/auth"
	"github.com/dmitrijs2005/objsync/internal/client/progress"
	"github.com/dmitrijs2005/objsync/internal/common"
)

// expiryMargin is how close to expiry a token is reported as expired.
const expiryMargin = 30 * time.Second

func (a *App) getStatus() string {
	s := ""
	if u := a.user(); u != "" {
		s = u + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

func (a *App) Register(ctx context.Context) error {
	return a.passwordLogin(ctx, true)
}

func (a *App) Login(ctx context.Context) error {
	return a.passwordLogin(ctx, false)
}

func (a *App) passwordLogin(ctx context.Context, register bool) error {
	userName, err := GetSimpleText(a.reader, "-Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	res := a.auth.Login(ctx, userName, password, register)
	if err := a.accept(res); err != nil {
		return err
	}

	if t, ok := res.AccessToken(); ok {
		a.setUser(t.Identity())
	} else {
		a.setUser(userName)
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	rt, ok := a.tokens.Refresh()
	if !ok {
		return common.ErrNotLoggedIn
	}

	if err := a.accept(a.auth.Refresh(ctx, rt.Value(), rt.Path())); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Token refreshed")
	return nil
}

// accept stores the tokens of res, or explains its failure to the user.
func (a *App) accept(res *auth.Result) error {
	if !res.HasError() {
		return a.tokens.Store(res)
	}

	e := res.Err()
	switch e.Kind() {
	case apierr.KindIO:
		fmt.Fprintln(a.out, "Server unreachable, check the auth URL and your connection")
	case apierr.KindHTTPStatus:
		msg := e.Title()
		if e.ServerCode() != apierr.CodeNone {
			msg += " (" + e.ServerCode().String() + ")"
		}
		fmt.Fprintln(a.out, msg)
		if h := e.Hint(); h != "" {
			fmt.Fprintln(a.out, "Hint:", h)
		}
	case apierr.KindParse:
		fmt.Fprintln(a.out, "Unexpected answer from the auth server")
	}
	return e
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	a.tokens.Clear()
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if t, ok := a.tokens.Access(); ok {
		state := "valid"
		if t.IsExpired(time.Now(), expiryMargin) {
			state = "expired"
		}
		fmt.Fprintf(a.out, "user: %s, token %s until %s\n", t.Identity(), state, t.ExpiresAt().Local().Format(time.RFC1123))
	} else {
		fmt.Fprintln(a.out, "not logged in")
	}

	if m := a.Mode(); m != "" {
		fmt.Fprintln(a.out, "server:", m)
	}

	for _, dir := range []progress.Direction{progress.Download, progress.Upload} {
		fmt.Fprintln(a.out, a.session.Snapshot(dir))
	}

	return a.printMetrics()
}

func (a *App) printMetrics() error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, f := range families {
		for _, m := range f.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", f.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
	return nil
}
