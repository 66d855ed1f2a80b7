package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestNewConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, FormatConsole, "info")

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("Expected console output, got JSON: %s", buf.String())
	}
}

func TestNewJSONLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, FormatJSON, "warn")

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v\n%s", err, buf.String())
	}
	if line["message"] != "kept" || line["level"] != "warn" {
		t.Errorf("unexpected line %v", line)
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), New(buf, FormatJSON, "info"))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContextDefault(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected default logger at info, got %v", log.GetLevel())
	}
}

func TestWithSession(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), New(buf, FormatJSON, "info"))
	ctx = WithSession(ctx, "3", "admin")

	log := FromContext(ctx)
	log.Info().Msg("test message")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["user_id"] != "3" || line["role"] != "admin" {
		t.Errorf("session fields missing from %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := &bytes.Buffer{}

	r := gin.New()
	r.Use(Middleware(New(buf, FormatJSON, "info")))
	r.GET("/ping", func(c *gin.Context) {
		log := FromContext(c.Request.Context())
		log.Info().Msg("inside handler")
		c.Status(http.StatusTeapot)
	})

	t.Run("generates id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(RequestIDHeader)
		if id == "" {
			t.Fatal("expected a generated request id")
		}
		if got := strings.Count(buf.String(), id); got != 2 {
			t.Errorf("request id logged %d times, want 2:\n%s", got, buf.String())
		}
		if !strings.Contains(buf.String(), `"status":418`) {
			t.Errorf("status not logged:\n%s", buf.String())
		}
	})

	t.Run("keeps caller id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		r.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("request id = %q, want abc-123", got)
		}
	})
}
