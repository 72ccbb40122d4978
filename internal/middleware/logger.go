package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SlowRequest is the duration above which a successful request logs at warn.
const SlowRequest = 2 * time.Second

func levelFor(status int, elapsed time.Duration) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case elapsed > SlowRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// ZapRequestLogger logs one line per request. Development loggers get a
// human-readable message; production keeps a constant message for indexing.
func ZapRequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	isDev := logger.Core().Enabled(zapcore.DebugLevel)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			msg := "request completed"
			if isDev {
				msg = fmt.Sprintf("%s %s %d %s", r.Method, r.URL.Path, status, elapsed)
			}
			ce := logger.Check(levelFor(status, elapsed), msg)
			if ce == nil {
				return
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("remote_ip", r.RemoteAddr),
			}
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			ce.Write(fields...)
		})
	}
}
