package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/tui/ui"
)

// PartnerList is the conversation partner table.
type PartnerList struct {
	*tview.Table
	theme    *ui.Theme
	partners []model.Partner
}

// NewPartnerList creates the partner table.
func NewPartnerList(theme *ui.Theme) *PartnerList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Conversations ")
	table.SetBorderColor(theme.BorderColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	return &PartnerList{Table: table, theme: theme}
}

// Update refreshes the table from a partner snapshot, preserving the cursor
// row where possible.
func (pl *PartnerList) Update(partners []model.Partner) {
	row, _ := pl.GetSelection()
	pl.partners = partners
	pl.Clear()

	for _, h := range []struct {
		col  int
		name string
	}{{0, " Username"}, {1, " Name"}, {2, " Unread"}} {
		pl.SetCell(0, h.col, tview.NewTableCell(h.name).
			SetSelectable(false).
			SetTextColor(pl.theme.TableHeaderFg))
	}

	for i, p := range partners {
		username := sanitizeForTerminal(p.Username)
		name := sanitizeForTerminal(p.FullName)

		unread := ""
		if p.UnreadCount > 0 {
			unread = fmt.Sprintf("[%s]%d[-]", colorTag(pl.theme.UnreadColor), p.UnreadCount)
			username = fmt.Sprintf("[::b]%s[-:-:-]", username)
		}

		pl.SetCell(i+1, 0, tview.NewTableCell(" "+username).SetMaxWidth(24).SetExpansion(1))
		pl.SetCell(i+1, 1, tview.NewTableCell(" "+name).SetMaxWidth(32).SetExpansion(2))
		pl.SetCell(i+1, 2, tview.NewTableCell(" "+unread).SetMaxWidth(8))
	}

	if row > len(partners) {
		row = len(partners)
	}
	if row < 1 {
		row = 1
	}
	pl.Select(row, 0)
}

// Selected returns the partner under the cursor, or nil.
func (pl *PartnerList) Selected() *model.Partner {
	row, _ := pl.GetSelection()
	idx := row - 1 // header row
	if idx < 0 || idx >= len(pl.partners) {
		return nil
	}
	p := pl.partners[idx]
	return &p
}
