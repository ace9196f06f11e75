package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/loom-ui/loom/internal/errors"
)

// ParseFragment parses markup into detached nodes as if it appeared
// inside an element with the given tag. The context tag matters for
// structurally constrained content: "<tr>..." only survives parsing
// under a table-section context. Leading and trailing whitespace-only
// text nodes are trimmed. No structural validation happens beyond what
// the parser itself does.
func ParseFragment(markup, contextTag string) ([]*html.Node, error) {
	if contextTag == "" {
		contextTag = "div"
	}
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     contextTag,
		DataAtom: atom.Lookup([]byte(contextTag)),
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, errors.New("L005").Wrap(err)
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return TrimWhitespace(nodes), nil
}

// TrimWhitespace drops leading and trailing whitespace-only text nodes
// from the top level of a parsed fragment.
func TrimWhitespace(nodes []*html.Node) []*html.Node {
	start := 0
	for start < len(nodes) && IsWhitespaceText(nodes[start]) {
		start++
	}
	end := len(nodes)
	for end > start && IsWhitespaceText(nodes[end-1]) {
		end--
	}
	return nodes[start:end]
}

// RenderString serializes nodes back to HTML.
func RenderString(nodes ...*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
