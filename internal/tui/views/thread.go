package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/tui/ui"
)

// ThreadView renders the active conversation.
type ThreadView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewThreadView creates the conversation view.
func NewThreadView(theme *ui.Theme) *ThreadView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")
	tv.SetBorderColor(theme.BorderColor)
	tv.SetTitleColor(theme.TitleColor)
	tv.SetBackgroundColor(theme.BgColor)

	return &ThreadView{TextView: tv, theme: theme}
}

// SetPartner updates the title with the partner's name.
func (tv *ThreadView) SetPartner(p *model.Partner) {
	if p == nil {
		tv.SetTitle(" Messages ")
		return
	}
	title := p.Username
	if p.FullName != "" {
		title = fmt.Sprintf("%s (%s)", p.Username, p.FullName)
	}
	tv.SetTitle(" " + sanitizeForTerminal(title) + " ")
}

// Update rewrites the view from a thread snapshot, oldest first.
func (tv *ThreadView) Update(self model.User, msgs []model.Message) {
	tv.Clear()

	for _, m := range msgs {
		sender := m.SenderUsername
		senderColor := colorTag(tv.theme.FgColor)
		if m.SenderID == self.ID {
			sender = "You"
			senderColor = colorTag(tv.theme.OwnMessageColor)
		}
		if sender == "" {
			sender = fmt.Sprintf("user %d", m.SenderID)
		}

		receipt := ""
		if m.SenderID == self.ID && m.IsRead {
			receipt = " [::d]read[-:-:-]"
		}

		_, _ = fmt.Fprintf(tv, "[%s::b]%s[-:-:-] [%s]%s[-]%s\n",
			senderColor, sanitizeForTerminal(sender),
			colorTag(tv.theme.TimestampColor), formatTimestamp(m.CreatedAt), receipt)

		if m.MediaURL != "" {
			kind := strings.ToLower(string(m.MessageType))
			_, _ = fmt.Fprintf(tv, "  [::d][%s: %s][-:-:-]\n", kind, sanitizeForTerminal(m.MediaFileName))
		}
		_, _ = fmt.Fprintf(tv, "%s\n\n", sanitizeForTerminal(m.Content))
	}

	tv.ScrollToEnd()
}
