package worker

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 2 {
		t.Errorf("expected default burst 2 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !limiter.Allow("https://www.planalto.gov.br/ccivil_03/leis/l8666.htm") {
			t.Fatalf("request %d should pass without a rate", i)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://www.planalto.gov.br/ccivil_03/leis/l1.htm"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://www.camara.leg.br"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "/relative/path"); err == nil {
		t.Error("expected error for a URL without host")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 5)
	ctx := context.Background()
	addr := "https://www.planalto.gov.br/ccivil_03/leis/l1.htm"

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, addr, 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if err := limiter.WaitWithDelay(ctx, addr, 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected the crawl delay between requests, got %v", elapsed)
	}
}

func TestLimiter_WaitWithDelay_FasterDelayKeepsRate(t *testing.T) {
	limiter := NewLimiter(0.5, 1)
	addr := "https://slow.example"

	if err := limiter.WaitWithDelay(context.Background(), addr, time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if limiter.Allow(addr) {
		t.Error("a crawl delay faster than the configured rate must not speed the host up")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	addr := "https://www.planalto.gov.br"

	if err := limiter.Wait(ctx, addr); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1 is spent
	if limiter.Allow(addr) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("https://www.senado.leg.br") {
		t.Errorf("expected allow for another host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetHostRate("Slow.Example", 0.1, 1)

	if !limiter.Allow("http://slow.example/a") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://slow.example/b") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.example") {
		t.Errorf("other host should pass")
	}

	hosts := limiter.Hosts()
	sort.Strings(hosts)
	if len(hosts) != 2 || hosts[0] != "fast.example" || hosts[1] != "slow.example" {
		t.Errorf("unexpected hosts %v", hosts)
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://WWW.Planalto.gov.br/ccivil_03")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "www.planalto.gov.br" {
		t.Errorf("expected lowercase host, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
