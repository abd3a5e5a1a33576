// Package card renders a profile as a fixed-size SVG card.
package card

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"nostr-card/internal/types"
	"nostr-card/internal/util"
)

// Canvas geometry.
const (
	Width      = 400
	Height     = 150
	Padding    = 15
	AvatarSize = 60

	TextStartX = Padding + AvatarSize + 15
	TextWidth  = Width - TextStartX - Padding
)

// Typography.
const (
	fontFamily          = `'Comic Sans MS', 'Chalkboard SE', 'marker felt', cursive`
	nameFontSize        = 14
	displayNameFontSize = 24
	nip05FontSize       = 14
	aboutFontSize       = 16
	aboutLineHeight     = 1.3
	charWidthRatio      = 0.6

	// MaxAboutLines caps the wrapped about text.
	MaxAboutLines = 3
)

const (
	bgColor          = "#FFFFFF"
	borderColor      = "#000000"
	nameColor        = "#888888"
	displayNameColor = "#000000"
	nip05Color       = "#005bff"
	aboutColor       = "#000000"
	lud16Color       = "#794bc4"
)

// AnonymousName is shown when the profile has neither display_name nor name.
const AnonymousName = "anonymous"

// CheckmarkPath is the verification glyph drawn before a verified nip05.
const CheckmarkPath = "M9 16.17L4.83 12l-1.42 1.41L9 19 21 7l-1.41-1.41z"

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><circle cx="50" cy="50" r="45" fill="#ccc"/><text x="50" y="60" font-size="30" text-anchor="middle" fill="#fff">?</text></svg>`

// DefaultAvatar is the inline placeholder used when a profile has no picture.
var DefaultAvatar = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG))

// AboutCharWidth is the estimated average glyph width of the about text.
const AboutCharWidth = aboutFontSize * charWidthRatio

// Render produces the SVG card for p. It never fails: missing fields fall back
// to defaults and a nil profile renders an anonymous card. The picture, when
// set, is embedded as-is; fetching and inlining remote images is the caller's job.
func Render(p *types.Profile, verified bool) string {
	if p == nil {
		p = &types.Profile{}
	}
	name := types.Deref(p.Name)
	displayName := util.FirstNonEmpty(types.Deref(p.DisplayName), name, AnonymousName)
	picture := util.FirstNonEmpty(types.Deref(p.Picture), DefaultAvatar)
	nip05 := types.Deref(p.Nip05)
	lud16 := types.Deref(p.Lud16)

	var b strings.Builder
	b.Grow(2048)

	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
		`<svg width="%d" height="%d" viewBox="0 0 %d %d" fill="none" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`,
		Width, Height, Width, Height)
	writeDefs(&b)

	fmt.Fprintf(&b, `<rect x="1" y="1" width="%d" height="%d" rx="10" ry="10" fill="%s" stroke="%s" stroke-width="2"/>`,
		Width-2, Height-2, bgColor, borderColor)

	center := Padding + AvatarSize/2
	fmt.Fprintf(&b, `<image href="%s" x="%d" y="%d" width="%d" height="%d" clip-path="url(#clipCircle)" />`,
		Escape(picture), Padding, Padding, AvatarSize, AvatarSize)
	fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="%d" stroke="%s" stroke-width="1" fill="none"/>`,
		center, center, AvatarSize/2, borderColor)

	y := float64(Padding + nameFontSize + 5)
	if name != "" {
		writeText(&b, TextStartX, y, "name", "@"+name)
		y += 5
	}

	y += displayNameFontSize
	writeText(&b, TextStartX, y, "display-name", displayName)

	if nip05 != "" {
		x := float64(TextStartX) + float64(utf8.RuneCountInString(displayName))*displayNameFontSize*charWidthRatio + 30
		if verified {
			fmt.Fprintf(&b, `<svg x="%s" y="%s" width="%d" height="%d" viewBox="0 0 24 24" fill="%s"><path d="%s"/></svg>`,
				num(x), num(y-nip05FontSize*0.8), nip05FontSize, nip05FontSize, nip05Color, CheckmarkPath)
			x += nip05FontSize + 5
		}
		writeText(&b, x, y, "nip05", nip05)
	}

	y += 10
	if lud16 != "" {
		y += nip05FontSize
		fmt.Fprintf(&b, `<text x="%d" y="%s" class="lud16">⚡ %s</text>`, TextStartX, num(y), Escape(lud16))
	}

	y += aboutFontSize * 1.5
	for i, line := range WrapText(types.Deref(p.About), TextWidth, AboutCharWidth, MaxAboutLines) {
		lineY := y + float64(i)*aboutFontSize*aboutLineHeight
		if lineY >= Height-Padding {
			break
		}
		writeText(&b, Padding, lineY, "about", line)
	}

	b.WriteString("</svg>")
	return b.String()
}

func writeDefs(b *strings.Builder) {
	b.WriteString("\n  <defs>\n    <style>\n")
	fmt.Fprintf(b, "      .name { font-family: %s; font-size: %dpx; fill: %s; }\n", fontFamily, nameFontSize, nameColor)
	fmt.Fprintf(b, "      .display-name { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }\n", fontFamily, displayNameFontSize, displayNameColor)
	fmt.Fprintf(b, "      .nip05 { font-family: %s; font-size: %dpx; fill: %s; }\n", fontFamily, nip05FontSize, nip05Color)
	fmt.Fprintf(b, "      .about { font-family: %s; font-size: %dpx; fill: %s; }\n", fontFamily, aboutFontSize, aboutColor)
	fmt.Fprintf(b, "      .lud16 { font-family: %s; font-size: %dpx; fill: %s; }\n", fontFamily, nip05FontSize, lud16Color)
	b.WriteString("    </style>\n")
	center := Padding + AvatarSize/2
	fmt.Fprintf(b, "    <clipPath id=\"clipCircle\">\n      <circle cx=\"%d\" cy=\"%d\" r=\"%d\" />\n    </clipPath>\n  </defs>",
		center, center, AvatarSize/2)
}

func writeText(b *strings.Builder, x, y float64, class, text string) {
	fmt.Fprintf(b, `<text x="%s" y="%s" class="%s">%s</text>`, num(x), num(y), class, Escape(text))
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
