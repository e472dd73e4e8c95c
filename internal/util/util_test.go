package util

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "localhost, .gov.br")

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/a", "http://proxy:3128"},
		{"https://example.com/a", "http://secure-proxy:3128"},
		{"https://www.planalto.gov.br/ccivil_03/leis/l8666.htm", ""},
		{"http://gov.br/", ""},
		{"http://localhost:8080/", ""},
		{"https://notgov.br/", "http://secure-proxy:3128"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			u, _ := url.Parse(tt.url)
			got, err := proxy(&http.Request{URL: u})
			if err != nil {
				t.Fatalf("proxy error: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected direct connection, got %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("proxy = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestNewProxyFunc_Wildcard(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "", "*")
	u, _ := url.Parse("http://example.com/")
	got, err := proxy(&http.Request{URL: u})
	if err != nil || got != nil {
		t.Errorf("expected no proxy, got %v (%v)", got, err)
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n\nUser-agent: Estatuto\nDisallow: /ccivil_03/rascunho/\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "Estatuto/0.1 (+https://example.org)", time.Hour)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/ccivil_03/leis/l8666.htm")
	if err != nil {
		t.Fatalf("CanFetch error: %v", err)
	}
	if !allowed {
		t.Error("expected law page to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}

	if err := checker.Check(ctx, server.URL+"/ccivil_03/rascunho/x.htm"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("expected ErrDisallowed, got %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1 (cached)", got)
	}
}

func TestRobotsChecker_Expiry(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "test-agent", time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	_ = checker.Check(context.Background(), server.URL+"/a")
	now = now.Add(2 * time.Minute)
	_ = checker.Check(context.Background(), server.URL+"/b")

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("robots.txt fetched %d times, want 2 after expiry", got)
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	checker := NewRobotsChecker(nil, "test-agent", 0)
	if err := checker.Check(context.Background(), addr+"/page"); err != nil {
		t.Errorf("expected allow when robots.txt unreachable, got %v", err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"Estatuto/0.1 (+https://github.com/ppiankov/estatuto)": "Estatuto",
		"curl/8.0": "curl",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
