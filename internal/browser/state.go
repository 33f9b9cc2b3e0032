package browser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed state.js
var stateScript string

// IndexAttribute is written on every indexed element so actions can find it again.
const IndexAttribute = "data-agent-index"

// Element is one interactive element of the page, addressable by Index.
type Element struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PageState is a snapshot of the current page as the agent sees it.
type PageState struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Elements    []Element `json:"elements"`
	PixelsAbove int       `json:"pixels_above"`
	PixelsBelow int       `json:"pixels_below"`
}

// decodeState parses the JSON produced by state.js.
func decodeState(raw any) (*PageState, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected page state type %T", raw)
	}
	var state PageState
	if err := json.Unmarshal([]byte(s), &state); err != nil {
		return nil, fmt.Errorf("failed to decode page state: %w", err)
	}
	return &state, nil
}

// Element returns the element with the given index.
func (p *PageState) Element(index int) (Element, bool) {
	for _, el := range p.Elements {
		if el.Index == index {
			return el, true
		}
	}
	return Element{}, false
}

// ElementsText renders the indexed elements one per line as [i]<tag attrs>text</tag>.
func (p *PageState) ElementsText() string {
	if len(p.Elements) == 0 {
		return "empty page"
	}
	var b strings.Builder
	for i, el := range p.Elements {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d]<%s", el.Index, el.Tag)
		keys := make([]string, 0, len(el.Attributes))
		for k := range el.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%q", k, el.Attributes[k])
		}
		fmt.Fprintf(&b, ">%s</%s>", el.Text, el.Tag)
	}
	return b.String()
}
