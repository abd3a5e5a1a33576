package card

import (
	"math"
	"strings"
)

// Ellipsis is appended to the last kept line when wrapped text is truncated.
const Ellipsis = "..."

// MaxCharsPerLine estimates how many characters fit in width at the given
// average character width. It is never less than 1.
func MaxCharsPerLine(width, charWidth float64) int {
	if charWidth <= 0 {
		return 1
	}
	n := int(math.Floor(width / charWidth))
	if n < 1 {
		return 1
	}
	return n
}

// WrapText greedily packs whitespace-separated words into lines of at most
// MaxCharsPerLine(maxWidth, charWidth) runes. Words longer than a line are
// split into line-sized chunks. When maxLines > 0 and more lines would be
// produced, the output is cut to maxLines and the last line ends in Ellipsis.
//
// The last kept line is shortened to make room for Ellipsis rather than having
// it appended, so a truncated line never exceeds the per-line limit.
func WrapText(text string, maxWidth, charWidth float64, maxLines int) []string {
	maxChars := MaxCharsPerLine(maxWidth, charWidth)
	lines := wrapLines(text, maxChars)
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	return truncateLines(lines, maxLines, maxChars)
}

func wrapLines(text string, maxChars int) []string {
	var lines []string
	var current []rune

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(current) > 0 {
			if len(current)+1+len(w) <= maxChars {
				current = append(current, ' ')
				current = append(current, w...)
				continue
			}
			lines = append(lines, string(current))
			current = nil
		}
		for len(w) > maxChars {
			lines = append(lines, string(w[:maxChars]))
			w = w[maxChars:]
		}
		current = w
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// truncateLines keeps the first maxLines lines and marks the cut. The last
// line is shortened first so that it still fits with the marker attached.
func truncateLines(lines []string, maxLines, maxChars int) []string {
	out := make([]string, maxLines)
	copy(out, lines[:maxLines])

	last := []rune(out[maxLines-1])
	limit := maxChars - len(Ellipsis)
	if limit < 0 {
		limit = 0
	}
	if len(last) > limit {
		last = []rune(strings.TrimRight(string(last[:limit]), " "))
	}
	out[maxLines-1] = string(last) + Ellipsis
	return out
}
