package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	sessionTokenKey ctxKey = "sessionToken"
	operatorKey     ctxKey = "operator"
)

// Methods that need a session token in metadata.
var sessionMethods = map[string]bool{
	api.FullMethod(api.MethodLogout):      true,
	api.FullMethod(api.MethodWhoAmI):      true,
	api.FullMethod(api.MethodSignMessage): true,
}

// Methods that need an operator JWT in metadata.
var operatorMethods = map[string]bool{
	api.FullMethod(api.MethodGetWallet):  true,
	api.FullMethod(api.MethodDeactivate): true,
	api.FullMethod(api.MethodReactivate): true,
}

func metadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) authInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	switch {
	case sessionMethods[info.FullMethod]:
		token := metadataValue(ctx, common.SessionTokenHeaderName)
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing session token")
		}
		ctx = context.WithValue(ctx, sessionTokenKey, token)

	case operatorMethods[info.FullMethod]:
		token := metadataValue(ctx, common.OperatorTokenHeaderName)
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing operator token")
		}
		operator, err := auth.ParseOperator(token, s.jwtSecret, s.operatorTTL)
		if err != nil {
			s.logger.Warn(ctx, "operator token rejected", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, common.PublicMessage(err))
		}
		ctx = context.WithValue(ctx, operatorKey, operator)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func sessionTokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(sessionTokenKey).(string)
	return v
}

func operatorFrom(ctx context.Context) string {
	v, _ := ctx.Value(operatorKey).(string)
	return v
}
