// Package common contains constants and sentinel errors shared by the sync
// client packages.
package common

// AccessTokenHeaderName is the gRPC/HTTP metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// JSONContentType is sent with every JSON request body.
const JSONContentType = "application/json"
