// Package client contains the transport-facing pieces of the sync client.
//
// # Overview
//
// The package provides:
//  1. Authenticator, which posts credentials or a refresh token to the auth
//     endpoint and turns the answer into an *auth.Result. It never returns a
//     Go error; transport failures become KindIO results.
//  2. TokenHolder, an in-memory, goroutine-safe store for the current token
//     pair. It is also an oauth2.TokenSource, so HTTP transfers can carry the
//     access token through oauth2.Transport.
//  3. GRPCClient, a connection to the sync server whose interceptor attaches
//     the access token and, when the server reports an expired token,
//     refreshes once through the Authenticator and retries.
//
// # Error Handling
//
// gRPC failures are mapped to ErrUnavailable and ErrUnauthorized; match them
// with errors.Is. Authentication failures stay classified as *apierr.Error.
//
// Credentials are never persisted by this package.
package client
