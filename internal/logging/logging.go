// Package logging attaches structured-logging subscribers to the event bus.
package logging

import (
	"context"

	"go.uber.org/zap"

	eventbus "github.com/dunatron/odyssey-lift-off-part2/internal/eventbus"
	events "github.com/dunatron/odyssey-lift-off-part2/internal/events"
	reqid "github.com/dunatron/odyssey-lift-off-part2/internal/reqid"
)

// Attach subscribes request, operation, and fetch logging handlers on the
// global bus. The returned function detaches them.
func Attach(logger *zap.Logger) (detach func()) {
	unsubHTTP := eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		logger.Info("http request",
			zap.Int64("request_id", rid),
			zap.String("method", e.Request.Method),
			zap.String("path", e.Request.URL.Path),
			zap.Int("status", e.Status),
			zap.Duration("duration", e.Duration),
		)
	})

	unsubGQL := eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		rid, _ := reqid.FromContext(ctx)
		fields := []zap.Field{
			zap.Int64("request_id", rid),
			zap.String("operation_name", e.OperationName),
			zap.String("operation_type", e.OperationType),
			zap.Int("error_count", len(e.Errors)),
			zap.Duration("duration", e.Duration),
		}
		if len(e.Errors) > 0 {
			logger.Warn("graphql operation finished with errors", append(fields, zap.Errors("errors", e.Errors))...)
			return
		}
		logger.Info("graphql operation", fields...)
	})

	unsubFetch := eventbus.Subscribe(func(ctx context.Context, e events.FetchFinish) {
		rid, _ := reqid.FromContext(ctx)
		fields := []zap.Field{
			zap.Int64("request_id", rid),
			zap.String("method", e.Method),
			zap.String("url", e.URL),
			zap.Int("status", e.Status),
			zap.Duration("duration", e.Duration),
		}
		if e.Err != nil {
			logger.Warn("catalog fetch failed", append(fields, zap.Error(e.Err))...)
			return
		}
		logger.Debug("catalog fetch", fields...)
	})

	return func() {
		unsubHTTP()
		unsubGQL()
		unsubFetch()
	}
}
