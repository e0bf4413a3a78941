package session

import (
	"path/filepath"
	"testing"

	"github.com/solemarket/solechat/internal/model"
)

func testCreds(t *testing.T) *CredStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.db")
	s, err := OpenCreds(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCredsRoundTrip(t *testing.T) {
	s := testCreds(t)

	token, err := s.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		t.Errorf("fresh store token = %q, want empty", token)
	}

	u := model.User{ID: 7, Username: "kicks_dealer", FullName: "Kicks Dealer"}
	if err := s.Save("tok-1", u); err != nil {
		t.Fatal(err)
	}

	token, err = s.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "tok-1" {
		t.Errorf("Token() = %q, want tok-1", token)
	}

	got, err := s.CurrentUser()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != 7 || got.Username != "kicks_dealer" {
		t.Errorf("CurrentUser() = %+v, want id=7 username=kicks_dealer", got)
	}
}

func TestCredsSaveReplaces(t *testing.T) {
	s := testCreds(t)

	if err := s.Save("tok-1", model.User{ID: 1, Username: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("tok-2", model.User{ID: 2, Username: "b"}); err != nil {
		t.Fatal(err)
	}

	token, _ := s.Token()
	if token != "tok-2" {
		t.Errorf("Token() = %q, want tok-2", token)
	}
	u, _ := s.CurrentUser()
	if u == nil || u.ID != 2 {
		t.Errorf("CurrentUser() = %+v, want id=2", u)
	}
}

func TestCredsClear(t *testing.T) {
	s := testCreds(t)

	if err := s.Save("tok-1", model.User{ID: 1, Username: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	// Clearing again is a no-op.
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	token, _ := s.Token()
	if token != "" {
		t.Errorf("Token() after Clear = %q, want empty", token)
	}
	u, _ := s.CurrentUser()
	if u != nil {
		t.Errorf("CurrentUser() after Clear = %+v, want nil", u)
	}
}
