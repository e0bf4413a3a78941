package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solemarket/solechat/internal/rest"
)

type staticTokens struct{}

func (staticTokens) Token() (string, error) { return "test-token", nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return rest.New(srv.URL, staticTokens{}, nil, nil)
}

func TestPartnersFiltersMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "username": "kicks_dealer", "unreadCount": 3},
			{"id": 0, "username": "ghost"},
			{"id": 2, "username": ""},
			{"id": 3, "username": "sole_trader"}
		]`))
	})
	svc := NewMessageService(client, nil)

	partners, err := svc.Partners(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(partners) != 2 {
		t.Fatalf("got %d partners, want 2", len(partners))
	}
	if partners[0].Username != "kicks_dealer" || partners[0].UnreadCount != 3 {
		t.Errorf("partners[0] = %+v", partners[0])
	}
	if partners[1].ID != 3 {
		t.Errorf("partners[1].ID = %d, want 3", partners[1].ID)
	}
}

func TestConversationFiltersMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 10, "senderId": 1, "receiverId": 2, "content": "hello", "createdAt": "2026-08-30T10:00:00Z"},
			{"id": 0, "senderId": 1, "receiverId": 2, "content": "no id"},
			{"id": 11, "senderId": 0, "receiverId": 2, "content": "no sender"},
			{"id": 12, "senderId": 1, "receiverId": 2, "content": ""}
		]`))
	})
	svc := NewMessageService(client, nil)

	msgs, err := svc.Conversation(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != 10 {
		t.Fatalf("got %d messages %v, want only id=10", len(msgs), msgs)
	}
}

func TestConversationNotFoundIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc := NewMessageService(client, nil)

	msgs, err := svc.Conversation(context.Background(), 42)
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want empty thread", len(msgs))
	}
}

func TestSendPostsPayload(t *testing.T) {
	var got SendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id": 99, "senderId": 1, "receiverId": 2, "content": "hello", "createdAt": "2026-08-30T10:00:00Z"}`))
	})
	svc := NewMessageService(client, nil)

	msg, err := svc.Send(context.Background(), SendRequest{ReceiverID: 2, Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != 99 || msg.Content != "hello" {
		t.Errorf("confirmed message = %+v", msg)
	}
	if got.ReceiverID != 2 || got.Content != "hello" {
		t.Errorf("posted payload = %+v", got)
	}
}

func TestMarkReadUsesPatch(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"success": true}`))
	})
	svc := NewMessageService(client, nil)

	if err := svc.MarkRead(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if method != http.MethodPatch || path != "/messages/conversation/7/read" {
		t.Errorf("request = %s %s", method, path)
	}
}

func TestUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 5}`))
	})
	svc := NewMessageService(client, nil)

	n, err := svc.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("UnreadCount() = %d, want 5", n)
	}
}

func TestUserSearchEscapesQuery(t *testing.T) {
	var rawQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"id": 4, "username": "sole&heel"}`))
	})
	svc := NewUserService(client)

	u, err := svc.SearchByUsername(context.Background(), "sole&heel")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 4 {
		t.Errorf("user = %+v", u)
	}
	if rawQuery != "username=sole%26heel" {
		t.Errorf("raw query = %q", rawQuery)
	}
}

func TestUserGetNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc := NewUserService(client)

	if _, err := svc.Get(context.Background(), 12345); !errors.Is(err, rest.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"token": "jwt-abc", "id": 9, "username": "kicks_dealer", "email": "kd@example.com"}`))
	})
	svc := NewAuthService(client)

	res, err := svc.Login(context.Background(), "kicks_dealer", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Token != "jwt-abc" {
		t.Errorf("Token = %q", res.Token)
	}
	u := res.User()
	if u.ID != 9 || u.Username != "kicks_dealer" {
		t.Errorf("User() = %+v", u)
	}
}
