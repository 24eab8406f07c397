package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every unary RPC with its status code and latency
type LoggingInterceptor struct {
	log *zap.Logger
}

func NewLoggingInterceptor(log *zap.Logger) *LoggingInterceptor {
	return &LoggingInterceptor{log: log.Named("grpc")}
}

// Unary returns a server interceptor function that logs unary RPCs
func (interceptor *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			interceptor.log.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			interceptor.log.Info("rpc", fields...)
		}
		return resp, err
	}
}
