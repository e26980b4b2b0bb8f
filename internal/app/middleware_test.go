package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   slog.Level
	}{
		{status: 200, want: slog.LevelInfo},
		{status: 302, want: slog.LevelInfo},
		{status: 404, want: slog.LevelWarn},
		{status: 429, want: slog.LevelWarn},
		{status: 500, want: slog.LevelError},
		{status: 503, want: slog.LevelError},
	}

	for _, tc := range cases {
		if got := requestLogLevel(tc.status); got != tc.want {
			t.Fatalf("requestLogLevel(%d)=%v want=%v", tc.status, got, tc.want)
		}
	}
}

func TestLoggingResponseWriterCapturesStatusAndBytes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}), log)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusTeapot)
	}
	if rr.Body.String() != "short and stout" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestLoggingResponseWriterUnwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rr}
	if lrw.Unwrap() != rr {
		t.Fatalf("Unwrap must return the underlying writer")
	}
}
