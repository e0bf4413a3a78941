package keys

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestPageBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var fired string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 's', Handler: func() { fired = "global" }})
	r.AddPage("partners", &Action{Key: tcell.KeyRune, Rune: 's', Handler: func() { fired = "page" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone)
	if !r.HandleEvent("partners", ev) {
		t.Fatal("expected a handler to match")
	}
	if fired != "page" {
		t.Errorf("fired = %q, want page binding to win", fired)
	}

	if !r.HandleEvent("thread", ev) {
		t.Fatal("expected global handler to match on another page")
	}
	if fired != "global" {
		t.Errorf("fired = %q, want global binding", fired)
	}
}

func TestHintsOrderAndVisibility(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true, Handler: func() {}})
	r.AddGlobal(&Action{Key: tcell.KeyEscape, Description: "esc:back", Handler: func() {}})
	r.AddPage("partners", &Action{Key: tcell.KeyRune, Rune: 's', Description: "s:search", Visible: true, Handler: func() {}})

	got := r.Hints("partners")
	want := []string{"s:search", "q:quit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hints = %v, want %v", got, want)
	}
}

func TestHandleEventNoMatch(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() {}})

	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	if r.HandleEvent("partners", ev) {
		t.Error("expected no handler to match 'x'")
	}
}
