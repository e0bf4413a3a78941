package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/solemarket/solechat/internal/tui/ui"
)

// StatusBar is the single-line footer: profile, signed-in user, unread
// badge, session expiry hint, key hints and the flash message.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme

	profile  string
	username string
	unread   int
	expiry   time.Time
	hints    []string
	flash    *ui.FlashModel
}

// NewStatusBar creates the footer bar.
func NewStatusBar(theme *ui.Theme, profile string, flash *ui.FlashModel) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, profile: profile, flash: flash}
}

// SetUser updates the signed-in username ("" when signed out).
func (sb *StatusBar) SetUser(username string) {
	sb.username = username
	sb.Redraw()
}

// SetUnread updates the total unread badge.
func (sb *StatusBar) SetUnread(n int) {
	sb.unread = n
	sb.Redraw()
}

// SetExpiry updates the token expiry hint. Zero hides it.
func (sb *StatusBar) SetExpiry(t time.Time) {
	sb.expiry = t
	sb.Redraw()
}

// SetHints updates the keybinding hints for the current page.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.Redraw()
}

// Redraw re-renders the bar from current state.
func (sb *StatusBar) Redraw() {
	sb.Clear()

	parts := []string{fmt.Sprintf("[::b]%s[-:-:-]", sb.profile)}
	if sb.username != "" {
		parts = append(parts, "@"+sanitizeForTerminal(sb.username))
	}
	if sb.unread > 0 {
		parts = append(parts, fmt.Sprintf("[%s]%d unread[-]", colorTag(sb.theme.UnreadColor), sb.unread))
	}
	if !sb.expiry.IsZero() {
		if left := time.Until(sb.expiry); left > 0 {
			parts = append(parts, fmt.Sprintf("session %s", left.Round(time.Minute)))
		} else {
			parts = append(parts, fmt.Sprintf("[%s]session expired[-]", colorTag(sb.theme.FlashErrColor)))
		}
	}
	if len(sb.hints) > 0 {
		parts = append(parts, strings.Join(sb.hints, " "))
	}

	if msg := sb.flash.Get(); msg != nil {
		var color string
		switch msg.Level {
		case ui.FlashWarn:
			color = colorTag(sb.theme.FlashWarnColor)
		case ui.FlashErr:
			color = colorTag(sb.theme.FlashErrColor)
		default:
			color = colorTag(sb.theme.FlashInfoColor)
		}
		parts = append(parts, fmt.Sprintf("[%s]%s[-]", color, sanitizeForTerminal(msg.Text)))
	}

	_, _ = fmt.Fprint(sb, " "+strings.Join(parts, " | "))
}
