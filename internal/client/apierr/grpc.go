package apierr

import (
	"net/http"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInfoDomain is the domain reported in errdetails.ErrorInfo.
const ErrorInfoDomain = "objsync.auth"

// GRPCStatus lets status.FromError and status.Code understand classified
// errors, so they can cross the client's gRPC layer unchanged.
func (e *Error) GRPCStatus() *status.Status {
	st := status.New(e.grpcCode(), e.Error())

	md := map[string]string{}
	if e.statusCode != 0 {
		md["http_status"] = strconv.Itoa(e.statusCode)
	}
	if e.serverCode != CodeNone {
		md["server_code"] = strconv.Itoa(int(e.serverCode))
	}

	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   e.kind.String(),
		Domain:   ErrorInfoDomain,
		Metadata: md,
	})
	if err != nil {
		return st
	}
	return detailed
}

func (e *Error) grpcCode() codes.Code {
	switch e.kind {
	case KindIO:
		return codes.Unavailable
	case KindParse:
		return codes.Internal
	case KindHTTPStatus:
		return httpToGRPC(e.statusCode)
	}
	return codes.Unknown
}

func httpToGRPC(statusCode int) codes.Code {
	switch statusCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return codes.Unavailable
	}
	if statusCode >= 500 {
		return codes.Internal
	}
	return codes.Unknown
}
