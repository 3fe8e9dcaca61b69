package router

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	gorillacontext "github.com/gorilla/context"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// CustomZapLogger logs one line per served request (method, path, status,
// latency, size) on the global zap logger. The entry is attached to the
// request context so the Recoverer middleware reports panics through it.
func CustomZapLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := newRequestLogEntry(r)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		defer func() {
			user := gorillacontext.Get(r, httputil.UserLogin)
			gorillacontext.Clear(r)
			if user != nil {
				entry.fields = append(entry.fields, zap.String("user", user.(string)))
			}
			entry.fields = append(entry.fields,
				zap.Duration("lat", time.Since(start)),
				zap.Int("http_status", ww.Status()),
				zap.Int("size", ww.BytesWritten()),
			)
			entry.Write(ww.Status(), ww.BytesWritten(), ww.Header(), time.Since(start), nil)
		}()

		ctx := context.WithValue(r.Context(), httputil.ContextKeyLoggerR, r)
		next.ServeHTTP(ww, chimiddleware.WithLogEntry(r.WithContext(ctx), entry))
	})
}

// newRequestLogEntry seeds a log entry with the request identity fields
func newRequestLogEntry(r *http.Request) *requestLogEntry {
	fields := make([]zap.Field, 0, 10)
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		fields = append(fields, zap.String("requestid", reqID))
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	fields = append(fields,
		zap.String("method", r.Method),
		zap.String("scheme", scheme),
		zap.String("host", r.Host),
		zap.String("path", r.RequestURI),
		zap.String("proto", r.Proto),
		zap.String("remoteaddr", r.RemoteAddr),
	)

	return &requestLogEntry{logger: zap.L(), fields: fields}
}

// requestLogEntry implements chi's LogEntry on top of zap
type requestLogEntry struct {
	logger *zap.Logger
	fields []zap.Field
}

func (e *requestLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	e.logger.Info("request served", e.fields...)
}

// Panic logs the recovered value without panicking again, the Recoverer
// middleware still answers the caller with a 500 afterwards
func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panic", zap.Any("reason", v), zap.String("stack", string(stack)))
}
