package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/tui/ui"
)

// ComposerBar is the message input line with an attachment chip.
type ComposerBar struct {
	*tview.InputField
	onSend func(text string)
}

// NewComposerBar creates the composer input.
func NewComposerBar(theme *ui.Theme) *ComposerBar {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.TitleColor)

	c := &ComposerBar{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			// Empty text still goes through: an attachment-only send is
			// valid and validation owns the error message.
			c.onSend(c.GetText())
		}
	})

	return c
}

// SetOnSend sets the callback when the input is submitted.
func (c *ComposerBar) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetAttachment updates the attachment chip shown in the label.
func (c *ComposerBar) SetAttachment(att *model.Attachment) {
	if att == nil {
		c.SetLabel(" > ")
		return
	}
	c.SetLabel(fmt.Sprintf(" [%s %s] > ", att.Kind, att.FileName))
}
