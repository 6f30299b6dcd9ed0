package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/objsync/internal/client/auth"
	"github.com/dmitrijs2005/objsync/internal/common"
	"github.com/dmitrijs2005/objsync/internal/logging"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Refresher exchanges a refresh token for new tokens. *Authenticator
// implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken, path string) *auth.Result
}

type healthChecker interface {
	Check(ctx context.Context, in *healthpb.HealthCheckRequest, opts ...grpc.CallOption) (*healthpb.HealthCheckResponse, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	health      healthChecker
	tokens      *TokenHolder
	refresher   Refresher
	refreshing  singleflight.Group
	log         logging.Logger
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) authorize(ctx context.Context) context.Context {
	if t, ok := c.tokens.Access(); ok {
		return withAccessToken(ctx, t.Value())
	}
	return ctx
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	err := invoker(c.authorize(ctx), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if _, ok := c.tokens.Refresh(); !ok || c.refresher == nil {
		return err
	}

	if rerr := c.refresh(ctx); rerr != nil {
		c.log.Warn(ctx, "token refresh failed", "method", method, "error", rerr)
		return err
	}

	return invoker(c.authorize(ctx), method, req, reply, cc, opts...)
}

// refresh renews the access token. Concurrent callers share one request.
func (c *GRPCClient) refresh(ctx context.Context) error {
	_, err, _ := c.refreshing.Do("refresh", func() (interface{}, error) {
		rt, ok := c.tokens.Refresh()
		if !ok {
			return nil, common.ErrNotLoggedIn
		}
		res := c.refresher.Refresh(ctx, rt.Value(), rt.Path())
		if res.HasError() {
			return nil, res.Err()
		}
		return nil, c.tokens.Store(res)
	})
	return err
}

// NewGRPCClient connects to the sync server at endpointURL. Extra dial
// options are appended after the defaults.
func NewGRPCClient(endpointURL string, tokens *TokenHolder, refresher Refresher, log logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	if log == nil {
		log = logging.NewDiscard()
	}
	if tokens == nil {
		tokens = &TokenHolder{}
	}
	c := &GRPCClient{endpointURL: endpointURL, tokens: tokens, refresher: refresher, log: log}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.health = healthpb.NewHealthClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Ping asks the server's health service whether it is serving.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return c.mapError(err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}

	return nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
