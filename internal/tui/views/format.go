package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

// colorTag renders a tcell color as a tview markup tag value.
func colorTag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// formatTimestamp shows the clock time for today and the date otherwise.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 15:04")
}
