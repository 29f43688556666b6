package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/pkg/core"
)

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:5000/", "secret", 0)
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", c.httpClient.Timeout)
	}
}

func TestHealthcheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewClient(server.URL, "", time.Second).Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestInterpret_Success(t *testing.T) {
	var got Request
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interpret" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"kind": "set_heading", "params": {"degrees": 270}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	a, err := c.Interpret(context.Background(), Request{
		Vessel:    "v1",
		Role:      core.RoleHelmOfficer,
		OrderText: "come left to 270",
		View:      core.View{Tick: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != action.KindSetHeading || string(a.Params) != `{"degrees": 270}` {
		t.Errorf("unexpected action %+v", a)
	}
	if got.OrderText != "come left to 270" || got.View.Tick != 3 {
		t.Errorf("unexpected request %+v", got)
	}
	if auth != "Bearer k" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
}

func TestInterpret_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"interpreter error", http.StatusOK, `{"error": "order unclear"}`},
		{"unknown kind", http.StatusOK, `{"kind": "ram"}`},
		{"malformed", http.StatusOK, `{"kind":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "", time.Second).Interpret(context.Background(), Request{})
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInterpret_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(server.URL, "", time.Minute).Interpret(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
