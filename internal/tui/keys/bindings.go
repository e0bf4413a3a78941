package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

type scoped struct {
	page   string // "" = global
	action *Action
}

// Registry holds keybindings in registration order, so hint lines render
// deterministically.
type Registry struct {
	entries []scoped
}

// NewRegistry creates an empty keybinding registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddGlobal registers a keybinding active on every page.
func (r *Registry) AddGlobal(action *Action) {
	r.entries = append(r.entries, scoped{action: action})
}

// AddPage registers a keybinding active only on the given page.
func (r *Registry) AddPage(page string, action *Action) {
	r.entries = append(r.entries, scoped{page: page, action: action})
}

// Hints returns visible keybinding descriptions for a page, page-specific
// bindings first.
func (r *Registry) Hints(page string) []string {
	var hints []string
	for _, e := range r.entries {
		if e.page == page && e.action.Visible {
			hints = append(hints, e.action.Description)
		}
	}
	for _, e := range r.entries {
		if e.page == "" && e.action.Visible {
			hints = append(hints, e.action.Description)
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the first matching action for the
// page. Page bindings shadow global ones. Returns true if a handler ran.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	for _, e := range r.entries {
		if e.page == page && e.action.Matches(ev) {
			e.action.Handler()
			return true
		}
	}
	for _, e := range r.entries {
		if e.page == "" && e.action.Matches(ev) {
			e.action.Handler()
			return true
		}
	}
	return false
}
