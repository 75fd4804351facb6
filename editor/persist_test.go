package editor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaguanLabs/livelang"
)

func fastRetry() livelang.RetryConfig {
	return livelang.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestHTTPPersister_Success(t *testing.T) {
	var got SaveBody
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"id":7}`))
	}))
	defer srv.Close()

	p := NewHTTPPersister(srv.URL+"/save", WithToken("secret"), WithRole("editor"), WithRetryConfig(fastRetry()))
	err := p.Persist(context.Background(), livelang.SaveRequest{
		Original:   "Welcome",
		Translated: "Bienvenido",
		Slug:       "home",
		Language:   "es",
		IsGlobal:   true,
	})
	if err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	want := SaveBody{Original: "Welcome", Translated: "Bienvenido", Slug: "home", Language: "es", IsGlobal: "1"}
	if got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
	if header.Get("Authorization") != "Bearer secret" {
		t.Errorf("Authorization = %q", header.Get("Authorization"))
	}
	if header.Get(RoleHeader) != "editor" {
		t.Errorf("%s = %q", RoleHeader, header.Get(RoleHeader))
	}
	if header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", header.Get("Content-Type"))
	}
}

func TestHTTPPersister_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
		retryable bool
	}{
		{"client error is not retried", http.StatusBadRequest, `{"success":false,"error":"invalid original"}`, 1, false},
		{"forbidden is not retried", http.StatusForbidden, `{"success":false,"error":"not allowed"}`, 1, false},
		{"server error is retried", http.StatusInternalServerError, `{"success":false}`, 3, true},
		{"unacknowledged save", http.StatusOK, `{"success":false,"error":"nope"}`, 1, false},
		{"garbage body", http.StatusOK, `not json`, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewHTTPPersister(srv.URL, WithRetryConfig(fastRetry()))
			err := p.Persist(context.Background(), livelang.SaveRequest{Original: "a", Translated: "b", Slug: "home"})

			var remote *livelang.RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
			if remote.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", remote.Retryable, tt.retryable)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestHTTPPersister_RateLimitedIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":"too many requests"}`))
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	p := NewHTTPPersister(srv.URL, WithRetryConfig(fastRetry()))
	start := time.Now()
	if err := p.Persist(context.Background(), livelang.SaveRequest{Original: "a", Translated: "b", Slug: "home"}); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
	// Retry-After is capped by MaxDelay.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retry waited %v", elapsed)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":      0,
		"5":     5 * time.Second,
		" 2 ":   2 * time.Second,
		"-1":    0,
		"later": 0,
	}
	for in, want := range tests {
		if got := retryAfter(in); got != want {
			t.Errorf("retryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHTTPPersister_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewHTTPPersister(url, WithRetryConfig(fastRetry()))
	err := p.Persist(context.Background(), livelang.SaveRequest{Original: "a", Translated: "b"})

	var remote *livelang.RemoteError
	if !errors.As(err, &remote) || !remote.Retryable {
		t.Errorf("expected retryable RemoteError, got %v", err)
	}
}

func TestHTTPPersister_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewHTTPPersister(srv.URL)
	if err := p.Persist(ctx, livelang.SaveRequest{Original: "a", Translated: "b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSaveBody_IsGlobal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := (SaveBody{IsGlobal: tt.in}).SaveRequest().IsGlobal; got != tt.want {
			t.Errorf("IsGlobal %q = %v, want %v", tt.in, got, tt.want)
		}
	}

	if NewSaveBody(livelang.SaveRequest{}).IsGlobal != "0" {
		t.Error("non-global request should encode as \"0\"")
	}
}

func TestPersisterFunc(t *testing.T) {
	var got livelang.SaveRequest
	p := PersisterFunc(func(ctx context.Context, req livelang.SaveRequest) error {
		got = req
		return nil
	})

	req := livelang.SaveRequest{Original: "a", Translated: "b"}
	if err := p.Persist(context.Background(), req); err != nil || got != req {
		t.Errorf("PersisterFunc did not forward the request")
	}
}
