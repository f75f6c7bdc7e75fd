package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"jagx-bot/internal/telemetry/domain"
)

func TestClientIPFromContext_Default(t *testing.T) {
	if got := ClientIPFromContext(context.Background()); got != "unknown" {
		t.Errorf("ClientIPFromContext = %q, want unknown", got)
	}
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 203.0.113.9 "}, "10.0.0.2:1234", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.5:5555", "192.0.2.5"},
		{"remote addr without port", nil, "192.0.2.5", "192.0.2.5"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIPFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Errorf("client IP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequireBearer(t *testing.T) {
	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantToken  string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer   ", http.StatusUnauthorized, ""},
		{"valid", "Bearer abc.def", http.StatusOK, "abc.def"},
		{"case insensitive", "bearer xyz", http.StatusOK, "xyz"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := RequireBearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = BearerTokenFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/pair-session", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got != tc.wantToken {
				t.Errorf("token = %q, want %q", got, tc.wantToken)
			}
		})
	}
}

type captureEmitter struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (c *captureEmitter) Emit(_ context.Context, e *domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureEmitter) snapshot() []*domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.Event(nil), c.events...)
}

func TestTelemetry_EmitsHTTPRequestEvent(t *testing.T) {
	em := &captureEmitter{}
	r := chi.NewRouter()
	r.Use(ClientIP)
	r.Use(Telemetry(nil, em, map[string]bool{"/healthz": true}))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	deadline := time.Now().Add(2 * time.Second)
	for len(em.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	events := em.snapshot()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (healthz skipped)", len(events))
	}
	if events[0].EventType != "http_request" {
		t.Errorf("event type = %q", events[0].EventType)
	}
	var meta httpRequestMetadata
	if err := json.Unmarshal(events[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Route != "/items/{id}" || meta.Status != http.StatusTeapot || meta.ClientIP != "192.0.2.1" {
		t.Errorf("metadata = %+v", meta)
	}
}
