package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkpost/inkpost/internal/model"
)

// TestLogging_SessionCookieNotLogged ensures the session token never reaches the logs.
func TestLogging_SessionCookieNotLogged(t *testing.T) {
	t.Parallel()

	const token = "c2VjcmV0LXNlc3Npb24tdG9rZW4tdmFsdWUtMTIzNDU2Nzg5MA"

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Logger(logger)(handler)

	req := httptest.NewRequest("GET", "/articles", nil)
	req.AddCookie(&http.Cookie{Name: "inkpost_session", Value: token})
	req.Header.Set("User-Agent", "TestAgent/1.0")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	logOutput := buf.String()
	if strings.Contains(logOutput, token) {
		t.Error("log output contains the session token")
	}
	if strings.Contains(logOutput, "inkpost_session") {
		t.Error("log output contains the session cookie")
	}
}

// TestLogging_PasswordNotLogged ensures form bodies are not logged.
func TestLogging_PasswordNotLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.WriteHeader(http.StatusSeeOther)
	})
	wrapped := Logger(logger)(handler)

	req := httptest.NewRequest("POST", "/login", strings.NewReader("username=a%40example.com&password=hunter2hunter2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if strings.Contains(buf.String(), "hunter2hunter2") {
		t.Error("log output contains the submitted password")
	}
}

// TestLogging_PrincipalFields verifies the session gate reports the principal
// back to the request log.
func TestLogging_PrincipalFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recordPrincipal(r.Context(), &model.Principal{AccountID: 42, Email: "a@example.com", SessionID: "01HZX0000000000000000000AB"})
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Logger(logger)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/articles", nil))

	logOutput := buf.String()
	for _, field := range []string{`"account_id":42`, `"session_id":"01HZX0000000000000000000AB"`} {
		if !strings.Contains(logOutput, field) {
			t.Errorf("expected log field %s not found in output: %s", field, logOutput)
		}
	}
	if strings.Contains(logOutput, "a@example.com") {
		t.Error("email should not be logged")
	}
}

// TestLogging_QuietPaths verifies probes are logged at debug level.
func TestLogging_QuietPaths(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Logger(logger)(handler)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.css"} {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if buf.Len() != 0 {
		t.Errorf("expected no info-level output for probes, got: %s", buf.String())
	}
}

// TestLogging_BasicFields verifies that expected non-sensitive fields are logged.
func TestLogging_BasicFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	loggingMiddleware := Logger(logger)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	wrapped := loggingMiddleware(handler)

	req := httptest.NewRequest("POST", "/api/articles", nil)
	req.Header.Set("User-Agent", "TestBrowser/2.0")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	logOutput := buf.String()

	// These fields should be logged
	expectedFields := []string{
		`"method":"POST"`,
		`"path":"/api/articles"`,
		`"status_code":201`,
		`"user_agent":"TestBrowser/2.0"`,
	}

	for _, field := range expectedFields {
		if !strings.Contains(logOutput, field) {
			t.Errorf("Expected log field %s not found in output", field)
		}
	}
}

// TestLogging_ErrorStatusLevel verifies error statuses are logged at error level.
func TestLogging_ErrorStatusLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{"success", http.StatusOK, "INFO"},
		{"created", http.StatusCreated, "INFO"},
		{"bad request", http.StatusBadRequest, "WARN"},
		{"unauthorized", http.StatusUnauthorized, "WARN"},
		{"not found", http.StatusNotFound, "WARN"},
		{"internal error", http.StatusInternalServerError, "ERROR"},
		{"bad gateway", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			loggingMiddleware := Logger(logger)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := loggingMiddleware(handler)

			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			logOutput := buf.String()

			// Check log level
			if !strings.Contains(logOutput, `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("Expected log level %s for status %d, got output: %s", tt.wantLevel, tt.statusCode, logOutput)
			}
		})
	}
}

// TestResponseWriter_CapturesStatus verifies the response writer correctly captures status codes.
func TestResponseWriter_CapturesStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"ok", http.StatusOK},
		{"created", http.StatusCreated},
		{"no content", http.StatusNoContent},
		{"bad request", http.StatusBadRequest},
		{"internal error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			wrapped := wrapResponseWriter(rec)

			wrapped.WriteHeader(tt.statusCode)

			if wrapped.status != tt.statusCode {
				t.Errorf("status = %d, want %d", wrapped.status, tt.statusCode)
			}
		})
	}
}

// TestResponseWriter_DefaultStatus verifies default status is 200 OK.
func TestResponseWriter_DefaultStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	// Write without explicit WriteHeader
	wrapped.Write([]byte("hello"))

	if wrapped.status != http.StatusOK {
		t.Errorf("default status = %d, want %d", wrapped.status, http.StatusOK)
	}
}

// TestResponseWriter_DoubleWriteHeader ensures only first WriteHeader takes effect.
func TestResponseWriter_DoubleWriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusInternalServerError) // Should be ignored

	if wrapped.status != http.StatusCreated {
		t.Errorf("status after double write = %d, want %d", wrapped.status, http.StatusCreated)
	}
}
