package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DaBoB6868/dorm-ra-bot/internal/chat"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ratelimit"
)

func TestNewServer_RequiresOrchestrator(t *testing.T) {
	_, err := NewServer(ServerConfig{
		Limiter: ratelimit.New(ratelimit.Config{}, log.NewNop()),
	})
	if err == nil {
		t.Fatal("NewServer() without orchestrator should return error")
	}
	if !strings.Contains(err.Error(), "orchestrator") {
		t.Errorf("NewServer() error = %q, want mention of orchestrator", err)
	}
}

func TestNewServer_RequiresLimiter(t *testing.T) {
	_, err := NewServer(ServerConfig{
		Orchestrator: &chat.Orchestrator{},
	})
	if err == nil {
		t.Fatal("NewServer() without limiter should return error")
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	health(log.NewNop())(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status field = %q, want %q", body["status"], "ok")
	}
}

func TestReadiness_NilPool(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	readiness(nil, log.NewNop())(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("readiness status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var fromCtx string
	handler := requestIDMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		fromCtx = requestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	got := w.Header().Get("X-Request-ID")
	if got == "" {
		t.Fatal("requestIDMiddleware() did not set X-Request-ID header")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("X-Request-ID = %q, not a valid UUID", got)
	}
	if fromCtx != got {
		t.Errorf("requestIDFromContext() = %q, want %q", fromCtx, got)
	}
}

func TestRequestIDMiddleware_EchoesValidID(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	want := uuid.New().String()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", want)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != want {
		t.Errorf("X-Request-ID = %q, want echoed %q", got, want)
	}
}

func TestRequestIDMiddleware_ReplacesInvalidID(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "definitely-not-a-uuid")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	got := w.Header().Get("X-Request-ID")
	if got == "definitely-not-a-uuid" {
		t.Error("requestIDMiddleware() should not reuse an invalid X-Request-ID")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("X-Request-ID = %q, not a valid UUID", got)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{Limit: 1, Window: time.Minute}, log.NewNop())
	handler := rateLimitMiddleware(limiter, false, log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("rate limited request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	retryAfter := w.Header().Get("Retry-After")
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Fatalf("Retry-After = %q, want integer seconds", retryAfter)
	}
	if seconds < 1 || seconds > 60 {
		t.Errorf("Retry-After = %d, want within (0, 60]", seconds)
	}

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("429 body is not JSON: %v", err)
	}
	if body.Error != "rate_limited" {
		t.Errorf("429 error code = %q, want %q", body.Error, "rate_limited")
	}
}

func TestRateLimitMiddleware_SeparateIPs(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{Limit: 1, Window: time.Minute}, log.NewNop())
	handler := rateLimitMiddleware(limiter, false, log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.1:1111", "10.0.0.2:2222"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("request from %s status = %d, want %d", addr, w.Code, http.StatusOK)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "remote addr with port",
			trustProxy: true,
			remoteAddr: "10.0.0.1:12345",
			want:       "10.0.0.1",
		},
		{
			name:       "X-Forwarded-For first entry when trusted",
			trustProxy: true,
			remoteAddr: "127.0.0.1:80",
			xff:        "203.0.113.50, 70.41.3.18, 150.172.238.178",
			want:       "203.0.113.50",
		},
		{
			name:       "X-Real-IP takes precedence over X-Forwarded-For when trusted",
			trustProxy: true,
			remoteAddr: "127.0.0.1:80",
			xff:        "203.0.113.50",
			xri:        "198.51.100.1",
			want:       "198.51.100.1",
		},
		{
			name:       "untrusted ignores proxy headers",
			trustProxy: false,
			remoteAddr: "10.0.0.1:12345",
			xff:        "203.0.113.50",
			xri:        "198.51.100.1",
			want:       "10.0.0.1",
		},
		{
			name:       "invalid X-Real-IP falls through to XFF",
			trustProxy: true,
			remoteAddr: "127.0.0.1:80",
			xri:        "not-an-ip",
			xff:        "203.0.113.50",
			want:       "203.0.113.50",
		},
		{
			name:       "invalid XFF falls through to RemoteAddr",
			trustProxy: true,
			remoteAddr: "127.0.0.1:80",
			xff:        "not-an-ip",
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP(r, %v) = %q, want %q", tt.trustProxy, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed origin gets headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		handler.ServeHTTP(w, r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "http://evil.example.com")
		handler.ServeHTTP(w, r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight returns 204", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})
}

func TestChatHandler_SendValidation(t *testing.T) {
	h := &chatHandler{logger: log.NewNop()}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid JSON",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "missing message",
			body:       `{"history":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_message",
		},
		{
			name:       "history too long",
			body:       `{"message":"hi","history":[` + strings.Repeat(`{"role":"user","content":"x"},`, chat.MaxHistoryMessages) + `{"role":"user","content":"x"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "history_too_long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(tt.body))
			h.send(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", body.Error, tt.wantCode)
			}
		})
	}
}

func TestChatHandler_StreamValidationEmitsErrorEvent(t *testing.T) {
	h := &chatHandler{logger: log.NewNop()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", strings.NewReader(`{"history":[]}`))
	h.stream(w, r)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", got, "text/event-stream")
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "event: error\ndata: ") {
		t.Fatalf("stream body = %q, want error event", body)
	}
	if !strings.Contains(body, "missing_message") {
		t.Errorf("stream body = %q, want missing_message code", body)
	}
}

func TestWriteEvent_Format(t *testing.T) {
	w := httptest.NewRecorder()

	if err := writeEvent(w, w, EventChunk, ChunkPayload{Text: "hello"}); err != nil {
		t.Fatalf("writeEvent() error = %v", err)
	}

	want := "event: chunk\ndata: {\"text\":\"hello\"}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("writeEvent() wrote %q, want %q", got, want)
	}
	if !w.Flushed {
		t.Error("writeEvent() did not flush")
	}
}

func TestWriteError_Body(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "bad_input", "something was wrong", log.NewNop())

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error != "bad_input" || body.Message != "something was wrong" {
		t.Errorf("body = %+v, want code bad_input with message", body)
	}
}
