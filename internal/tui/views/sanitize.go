package views

import "strings"

// strippedRanges lists codepoints that break tcell/tview cell width
// accounting. Usernames and message bodies come straight from the
// marketplace backend and routinely carry composed emoji; removing the
// modifiers degrades them to their base form, which renders at a stable
// width.
var strippedRanges = [...][2]rune{
	{0x200D, 0x200D},   // zero width joiner
	{0xFE00, 0xFE0F},   // variation selectors
	{0x1F3FB, 0x1F3FF}, // skin tone modifiers
	{0xE0100, 0xE01EF}, // variation selectors supplement
}

func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
next:
	for _, r := range s {
		for _, rng := range strippedRanges {
			if r >= rng[0] && r <= rng[1] {
				continue next
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
