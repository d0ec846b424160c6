// Package connect provides the admin Connect RPC service.
package connect

import (
	"context"
	"crypto/subtle"
	"path"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/infra/metrics"
)

const (
	// AdminTokenHeader is the header name for admin authentication token.
	AdminTokenHeader = "X-Admin-Token"
	// RequestIDHeader carries the ID assigned to each admin call.
	RequestIDHeader = "X-Request-Id"
)

// AdminAuthInterceptor validates the admin token on unary and streaming calls
// and tags each call with a request ID.
type AdminAuthInterceptor struct {
	token string
}

// NewAdminAuthInterceptor creates an interceptor that accepts token.
func NewAdminAuthInterceptor(token string) *AdminAuthInterceptor {
	return &AdminAuthInterceptor{token: token}
}

var _ connect.Interceptor = (*AdminAuthInterceptor)(nil)

func (i *AdminAuthInterceptor) authorize(procedure, token string) (string, error) {
	requestID := uuid.New().String()
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) != 1 {
		zlog.Warn().Msgf("admin: unauthenticated call: procedure=%s request_id=%s", procedure, requestID)
		return requestID, connect.NewError(connect.CodeUnauthenticated, nil)
	}
	metrics.CommandsTotal.WithLabelValues("admin", path.Base(procedure)).Inc()
	zlog.Info().Msgf("admin: call: procedure=%s request_id=%s", procedure, requestID)
	return requestID, nil
}

// WrapUnary implements connect.Interceptor.
func (i *AdminAuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		requestID, err := i.authorize(req.Spec().Procedure, req.Header().Get(AdminTokenHeader))
		if err != nil {
			return nil, err
		}
		resp, err := next(ctx, req)
		if resp != nil {
			resp.Header().Set(RequestIDHeader, requestID)
		}
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *AdminAuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AdminAuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		requestID, err := i.authorize(conn.Spec().Procedure, conn.RequestHeader().Get(AdminTokenHeader))
		if err != nil {
			return err
		}
		conn.ResponseHeader().Set(RequestIDHeader, requestID)
		return next(ctx, conn)
	}
}
