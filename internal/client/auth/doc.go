// Package auth turns the raw answer of the object server's authenticate
// endpoint into a Result holding either an access/refresh token pair or a
// classified *apierr.Error.
//
// # Flow
//
// The HTTP layer performs the request and hands the response to CreateFrom
// (wrapping *http.Response with NewHTTPResponse). If the request could not be
// sent at all it uses Failed(apierr.NewIO(err)) instead. Either way the
// caller gets a *Result and branches on HasError:
//
//	res := auth.CreateFrom(ctx, auth.NewHTTPResponse(resp), log)
//	if res.HasError() {
//		return res.Err()
//	}
//	access, ok := res.AccessToken()
//
// # Payload
//
// A 200 answer is a JSON object with optional "access_token" and
// "refresh_token" members, each decoded by TokenFrom. A missing member is not
// an error; a malformed one fails the whole result with KindParse.
//
// Results and tokens are immutable and safe for concurrent use. No retries
// happen here; retry policy belongs to the caller.
package auth
