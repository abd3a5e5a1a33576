package card

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostr-card/internal/types"
)

type textNode struct {
	class string
	x, y  string
	text  string
}

type parsedCard struct {
	texts  []textNode
	images []string
	paths  []string
	order  []string // element local names in document order
}

func (c parsedCard) byClass(class string) []textNode {
	var out []textNode
	for _, n := range c.texts {
		if n.class == class {
			out = append(out, n)
		}
	}
	return out
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// parseCard fails the test if svg is not well-formed XML.
func parseCard(t *testing.T, svg string) parsedCard {
	t.Helper()
	var card parsedCard
	var current *textNode
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err, svg)
		switch tok := tok.(type) {
		case xml.StartElement:
			card.order = append(card.order, tok.Name.Local)
			switch tok.Name.Local {
			case "text":
				current = &textNode{class: attr(tok, "class"), x: attr(tok, "x"), y: attr(tok, "y")}
			case "image":
				card.images = append(card.images, attr(tok, "href"))
			case "path":
				card.paths = append(card.paths, attr(tok, "d"))
			}
		case xml.CharData:
			if current != nil {
				current.text += string(tok)
			}
		case xml.EndElement:
			if tok.Name.Local == "text" && current != nil {
				card.texts = append(card.texts, *current)
				current = nil
			}
		}
	}
	return card
}

func strp(s string) *string { return &s }

func TestRender_AnonymousFallbacks(t *testing.T) {
	for _, p := range []*types.Profile{nil, {Pubkey: "abc"}} {
		svg := Render(p, true)
		card := parseCard(t, svg)

		assert.True(t, strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`))
		assert.Contains(t, svg, `viewBox="0 0 400 150"`)
		require.Len(t, card.byClass("display-name"), 1)
		assert.Equal(t, AnonymousName, card.byClass("display-name")[0].text)
		assert.Equal(t, "58", card.byClass("display-name")[0].y)
		assert.Empty(t, card.byClass("name"))
		assert.Empty(t, card.byClass("nip05"))
		assert.Empty(t, card.byClass("lud16"))
		assert.Empty(t, card.byClass("about"))
		assert.Empty(t, card.paths)
		assert.Equal(t, []string{DefaultAvatar}, card.images)
	}
}

func TestRender_NamePrecedence(t *testing.T) {
	card := parseCard(t, Render(&types.Profile{Name: strp("bob")}, false))
	assert.Equal(t, "bob", card.byClass("display-name")[0].text)
	require.Len(t, card.byClass("name"), 1)
	assert.Equal(t, "@bob", card.byClass("name")[0].text)
	assert.Equal(t, "34", card.byClass("name")[0].y)
	assert.Equal(t, "63", card.byClass("display-name")[0].y)

	card = parseCard(t, Render(&types.Profile{Name: strp("bob"), DisplayName: strp("Bob B.")}, false))
	assert.Equal(t, "Bob B.", card.byClass("display-name")[0].text)
	assert.Equal(t, "@bob", card.byClass("name")[0].text)
}

func TestRender_PictureEmbedded(t *testing.T) {
	pic := "data:image/png;base64,iVBORw0KGgo="
	card := parseCard(t, Render(&types.Profile{Picture: strp(pic)}, false))
	assert.Equal(t, []string{pic}, card.images)
}

func TestRender_VerificationGlyph(t *testing.T) {
	p := &types.Profile{Name: strp("bob"), Nip05: strp("bob@ex.com")}

	verified := Render(p, true)
	card := parseCard(t, verified)
	assert.Equal(t, []string{CheckmarkPath}, card.paths)
	require.Len(t, card.byClass("nip05"), 1)
	assert.Equal(t, "bob@ex.com", card.byClass("nip05")[0].text)
	// 90 + 3*14.4 + 30 for the glyph, then 19 further for the text.
	assert.Equal(t, "182.2", card.byClass("nip05")[0].x)
	assert.Less(t, strings.Index(verified, CheckmarkPath), strings.Index(verified, `class="nip05"`))

	card = parseCard(t, Render(p, false))
	assert.Empty(t, card.paths)
	assert.Equal(t, "163.2", card.byClass("nip05")[0].x)

	card = parseCard(t, Render(&types.Profile{Name: strp("bob")}, true))
	assert.Empty(t, card.paths)
	assert.Empty(t, card.byClass("nip05"))
}

func TestRender_Lud16(t *testing.T) {
	card := parseCard(t, Render(&types.Profile{Lud16: strp("bob@getalby.com")}, false))
	require.Len(t, card.byClass("lud16"), 1)
	assert.Equal(t, "⚡ bob@getalby.com", card.byClass("lud16")[0].text)
	assert.Equal(t, "82", card.byClass("lud16")[0].y)
}

func TestRender_AboutLinesWithinCanvas(t *testing.T) {
	about := strings.Repeat("lorem ipsum dolor sit amet ", 10)

	card := parseCard(t, Render(&types.Profile{About: strp(about)}, false))
	lines := card.byClass("about")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"92", "112.8", "133.6"}, []string{lines[0].y, lines[1].y, lines[2].y})
	assert.True(t, strings.HasSuffix(lines[2].text, Ellipsis))
	assert.Equal(t, "15", lines[0].x)

	// With a handle and a lightning address the third line would sit below
	// the bottom padding, so it is dropped.
	card = parseCard(t, Render(&types.Profile{Name: strp("bob"), Lud16: strp("bob@ln.tips"), About: strp(about)}, false))
	lines = card.byClass("about")
	require.Len(t, lines, 2)
	assert.Equal(t, "111", lines[0].y)
	assert.Equal(t, "131.8", lines[1].y)
}

func TestRender_AdversarialInputIsEscaped(t *testing.T) {
	evil := `<svg onload="alert('x')">&amp;</svg>` + "\" ' < > &"
	p := &types.Profile{
		Name:        strp(evil),
		DisplayName: strp(evil),
		Picture:     strp(`javascript:"><script>alert(1)</script>`),
		Nip05:       strp(evil),
		Lud16:       strp(evil),
		About:       strp(evil + " " + evil),
	}
	svg := Render(p, true)
	card := parseCard(t, svg)

	assert.Equal(t, "@"+evil, card.byClass("name")[0].text)
	assert.Equal(t, evil, card.byClass("display-name")[0].text)
	assert.Equal(t, evil, card.byClass("nip05")[0].text)
	assert.Equal(t, "⚡ "+evil, card.byClass("lud16")[0].text)
	assert.Equal(t, []string{`javascript:"><script>alert(1)</script>`}, card.images)
	assert.NotContains(t, svg, "<script")
	assert.NotContains(t, svg, `onload="`)

	for _, el := range card.order {
		assert.NotEqual(t, "script", el)
	}
}

func TestRender_Deterministic(t *testing.T) {
	p := &types.Profile{Name: strp("bob"), Nip05: strp("bob@ex.com"), About: strp("hi there")}
	assert.Equal(t, Render(p, true), Render(p, true))
}
