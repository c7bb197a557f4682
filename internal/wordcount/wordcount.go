// Package wordcount derives document word counts from editor content.
package wordcount

import (
	"errors"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Count returns the number of whitespace-separated words in text. Markup is
// stripped first so tags and attributes never count; entities are decoded.
// Empty input counts as 0.
func Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	if !strings.ContainsAny(text, "<&") {
		return len(strings.FieldsFunc(text, unicode.IsSpace))
	}
	return len(strings.FieldsFunc(PlainText(text), unicode.IsSpace))
}

// PlainText renders markup to the text a reader would see. Block-level
// elements and <br> become whitespace so adjacent paragraphs do not fuse
// into a single word; inline elements do not split words.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// A '<' that never closes into a tag is prose, so the tokenizer's
			// unread tail is kept verbatim.
			if errors.Is(z.Err(), io.EOF) && skip == 0 {
				b.Write(z.Raw())
			}
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if breaks(a) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
				continue
			}
			if breaks(a) {
				b.WriteByte(' ')
			}
		}
	}
}

func breaks(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Hr, atom.Li, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Section, atom.Article, atom.Header, atom.Footer, atom.Figure, atom.Figcaption:
		return true
	}
	return false
}

// Delta returns the signed change from old to new content and the new count.
// changed is false when the content is byte-identical, in which case no
// recount is done and delta is 0.
func Delta(oldContent string, oldCount int, newContent string) (delta, newCount int, changed bool) {
	if oldContent == newContent {
		return 0, oldCount, false
	}
	newCount = Count(newContent)
	return newCount - oldCount, newCount, true
}
