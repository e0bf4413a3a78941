package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// memTokens is a TokenSource whose value can change between calls,
// mimicking the credential store being rewritten by a re-login.
type memTokens struct {
	token string
}

func (m *memTokens) Token() (string, error) { return m.token, nil }

func TestTokenReadFreshPerCall(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &memTokens{token: "first"}
	c := New(srv.URL, tokens, nil, nil)

	if err := c.Do(context.Background(), http.MethodGet, "/messages/partners", nil, nil); err != nil {
		t.Fatal(err)
	}
	tokens.token = "second"
	if err := c.Do(context.Background(), http.MethodGet, "/messages/partners", nil, nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"Bearer first", "Bearer second"}
	for i, w := range want {
		if seen[i] != w {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], w)
		}
	}
}

func TestRequestIDAttached(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{}, nil, nil)
	if err := c.Do(context.Background(), http.MethodGet, "/users/1", nil, nil); err != nil {
		t.Fatal(err)
	}
	if gotID == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestUnauthorizedRunsExpiryHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	expired := 0
	c := New(srv.URL, &memTokens{token: "stale"}, nil, func() { expired++ })

	err := c.Do(context.Background(), http.MethodGet, "/messages/partners", nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error = %v, want ErrSessionExpired", err)
	}
	if expired != 1 {
		t.Errorf("expiry hook ran %d times, want 1", expired)
	}
}

func TestNotFoundClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{}, nil, nil)
	err := c.Do(context.Background(), http.MethodGet, "/users/999", nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestServerErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"content too long"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{}, nil, nil)
	err := c.Do(context.Background(), http.MethodPost, "/messages", map[string]any{}, nil)

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if se.Status != http.StatusBadRequest || se.Message != "content too long" {
		t.Errorf("ServerError = %+v", se)
	}
	if got := UserMessage(err, "fallback"); got != "content too long" {
		t.Errorf("UserMessage() = %q, want server message", got)
	}
}

func TestNetworkErrorClassified(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, &memTokens{}, nil, nil)
	err := c.Do(context.Background(), http.MethodGet, "/messages/partners", nil, nil)
	if !IsNetwork(err) {
		t.Errorf("error = %v, want NetworkError", err)
	}
}

func TestValidationHelpers(t *testing.T) {
	err := Validation("message is too long (max %d characters)", 1000)
	if !IsValidation(err) {
		t.Error("IsValidation() = false")
	}
	if got := UserMessage(err, "fallback"); got != "message is too long (max 1000 characters)" {
		t.Errorf("UserMessage() = %q", got)
	}
	if UserMessage(errors.New("opaque"), "fallback") != "fallback" {
		t.Error("UserMessage() fallback not used for opaque error")
	}
}
