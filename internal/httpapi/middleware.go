package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultMaxLogBytes = 512

// statusRecorder captures the status, size and a bounded prefix of the body
// for the request log.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
	wroteHeader  bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n

	remaining := r.maxLogBytes - r.logBody.Len()
	switch {
	case remaining <= 0:
		if n > 0 {
			r.truncated = true
		}
	case n > remaining:
		r.logBody.Write(p[:remaining])
		r.truncated = true
	default:
		r.logBody.Write(p[:n])
	}
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs one line per request. Response bodies are only logged
// for failures, capped at maxLogBytes.
func requestLogger(maxLogBytes int) func(http.Handler) http.Handler {
	if maxLogBytes <= 0 {
		maxLogBytes = defaultMaxLogBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				maxLogBytes:    maxLogBytes,
			}

			next.ServeHTTP(recorder, r)

			var event *zerolog.Event
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				event = log.Error()
			case recorder.statusCode >= http.StatusBadRequest:
				event = log.Warn()
			default:
				event = log.Info()
			}
			event = event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.statusCode).
				Int("bytes", recorder.bytesWritten).
				Dur("duration", time.Since(started))
			if recorder.statusCode >= http.StatusBadRequest {
				event = event.Str("body", recorder.logBody.String()).Bool("truncated", recorder.truncated)
			}
			event.Msg("Request handled")
		})
	}
}
