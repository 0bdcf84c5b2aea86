package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

// TestNewClient_Defaults verifies that NewClient applies defaults and sets
// TLS behavior when no custom Transport is supplied.
func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})

	if c.retries != 0 {
		t.Fatalf("expected default retries=0, got %d", c.retries)
	}
	if c.backoff(0) != defaultInitialBackoff || c.backoff(10) != defaultMaxBackoff {
		t.Fatalf("backoff defaults = %v/%v", c.backoff(0), c.backoff(10))
	}
	// Bodies stream without a whole-request deadline.
	if c.hc.Timeout != 0 {
		t.Fatalf("expected no client timeout, got %v", c.hc.Timeout)
	}

	tp, ok := c.hc.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.hc.Transport)
	}
	if tp.ResponseHeaderTimeout != 30*time.Second {
		t.Fatalf("ResponseHeaderTimeout = %v; want 30s", tp.ResponseHeaderTimeout)
	}
	if tp.TLSClientConfig == nil || !tp.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify=true when configured")
	}
}

func TestGet_SuccessNoRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("X-Token") != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, Header: http.Header{"X-Token": {"abc"}}})
	c.sleep = noSleep

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}

// TestGet_RetryOn5xxThenSuccess answers 500, 429, then 200.
func TestGet_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
	})
	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	resp.Body.Close()

	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if len(sleeps) != 2 || sleeps[0] != 10*time.Millisecond || sleeps[1] != 20*time.Millisecond {
		t.Fatalf("sleeps = %v; want [10ms 20ms]", sleeps)
	}
}

func TestGet_StopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 2})
	c.sleep = noSleep

	_, err := c.Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v; want *StatusError 503", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts (1 initial + 2 retries), got %d", got)
	}
}

func TestGet_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 5})
	c.sleep = noSleep

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", resp.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 attempt for non-retryable status, got %d", got)
	}
}

func TestGet_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Config{MaxRetries: 5})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepWithContext(ctx, d)
	}

	if _, err := c.Get(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
}

func TestGet_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}).Get(context.Background(), ""); err == nil {
		t.Fatal("empty url accepted")
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{100 * time.Millisecond, 0, time.Second, 100 * time.Millisecond},
		{100 * time.Millisecond, 1, time.Second, 200 * time.Millisecond},
		{100 * time.Millisecond, 2, time.Second, 400 * time.Millisecond},
		{600 * time.Millisecond, 1, time.Second, time.Second},
		{2 * time.Second, 0, time.Second, time.Second},
		{time.Second, 62, 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.initial.String()+"/attempt="+strconv.Itoa(tt.attempt), func(t *testing.T) {
			t.Parallel()
			if got := backoffDuration(tt.initial, tt.attempt, tt.max); got != tt.want {
				t.Fatalf("backoffDuration(%v, %d, %v) = %v, want %v",
					tt.initial, tt.attempt, tt.max, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{429: true, 500: true, 503: true, 200: false, 400: false, 404: false} {
		if got := isRetryableStatus(code); got != want {
			t.Errorf("isRetryableStatus(%d) = %v; want %v", code, got, want)
		}
	}
}

// TestCustomTransport ensures a supplied Transport is used as-is and TLS
// settings from Config are not applied on top of it.
func TestCustomTransport(t *testing.T) {
	t.Parallel()

	custom := &http.Transport{TLSClientConfig: &tls.Config{}}
	c := NewClient(Config{Transport: custom, InsecureSkipVerify: true})

	if c.hc.Transport != custom {
		t.Fatalf("expected custom transport to be used")
	}
	if custom.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("custom transport was modified")
	}
}

func TestSleepWithContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleepWithContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("sleep ignored cancellation")
	}
}

func TestSource_Open(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/in.csv":
			io.WriteString(w, "name,v\na,1\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{})
	rc, err := New(c, srv.URL+"/in.csv").Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, err := io.ReadAll(rc)
	rc.Close()
	if err != nil || string(body) != "name,v\na,1\n" {
		t.Fatalf("body = %q, %v", body, err)
	}

	_, err = New(c, srv.URL+"/missing.csv").Open(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v; want *StatusError 404", err)
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"http://host/a.csv":  true,
		"HTTPS://host/a.csv": true,
		"data/a.csv":         false,
		"-":                  false,
		"ftp://host/a.csv":   false,
	} {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v; want %v", in, got, want)
		}
	}
}
