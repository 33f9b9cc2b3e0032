package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// TruncationNotice is appended when HTMLToText cuts the output short.
const TruncationNotice = "\n\n[Content truncated: %d of %d bytes shown]"

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
	"head":     true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "br": true,
}

// HTMLToText converts a page to readable text. Scripts and styles are
// dropped, block elements become line breaks, headings get a markdown
// prefix and links are kept as "text (href)". maxLength <= 0 disables
// truncation.
func HTMLToText(rawHTML string, maxLength int) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{}
	w.walk(doc)
	return Truncate(w.String(), maxLength), nil
}

// Truncate cuts text to maxLength bytes on a rune boundary and appends
// TruncationNotice. maxLength <= 0 returns text unchanged.
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 || len(text) <= maxLength {
		return text
	}
	total := len(text)
	text = truncateUTF8(text, maxLength)
	return text + fmt.Sprintf(TruncationNotice, len(text), total)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}

type textWriter struct {
	lines   []string
	current strings.Builder
}

func (w *textWriter) String() string {
	w.flush()
	return strings.Join(w.lines, "\n")
}

func (w *textWriter) flush() {
	line := strings.Join(strings.Fields(w.current.String()), " ")
	w.current.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *textWriter) write(s string) {
	if w.current.Len() > 0 {
		w.current.WriteByte(' ')
	}
	w.current.WriteString(s)
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			w.write(text)
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}
		switch tag {
		case "a":
			w.writeLink(n)
			return
		case "img":
			if alt := attr(n, "alt"); alt != "" {
				w.write("[image: " + alt + "]")
			}
			return
		}
		if blockElements[tag] {
			w.flush()
			if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
				w.current.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " ")
			}
			if tag == "li" {
				w.current.WriteString("- ")
			}
			w.children(n)
			w.flush()
			return
		}
	}
	w.children(n)
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) writeLink(n *html.Node) {
	inner := &textWriter{}
	inner.children(n)
	text := strings.Join(strings.Fields(strings.ReplaceAll(inner.String(), "\n", " ")), " ")
	href := attr(n, "href")

	switch {
	case href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#"):
		if text != "" {
			w.write(text)
		}
	case text == "":
		w.write("(" + href + ")")
	default:
		w.write(text + " (" + href + ")")
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
