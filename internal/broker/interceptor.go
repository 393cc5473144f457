package broker

import (
	"context"
	"log/slog"
	"time"

	"nathanbeddoewebdev/vssplot/internal/logging"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingUnaryInterceptor logs each databroker call at debug level. Failed
// calls are left to the retry layer to report at warning level.
func loggingUnaryInterceptor(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		attrs := []any{
			slog.String("method", method),
			slog.Duration("duration", time.Since(start)),
			slog.String("code", status.Code(err).String()),
		}
		if cc != nil {
			attrs = append(attrs, slog.String("target", cc.Target()))
		}
		if err != nil {
			attrs = append(attrs, logging.Err(err))
		}
		logger.DebugContext(ctx, "gRPC unary call completed", attrs...)
		return err
	}
}
