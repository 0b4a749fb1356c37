package visual

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ParseSVG scans rendered SVG markup and returns, in document order, every
// element inside the outermost <svg> that has an id or is a node group.
// The outermost <svg> itself is never returned: its id is the render id.
func ParseSVG(svg string) ([]Element, error) {
	root, err := html.Parse(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}

	var out []Element
	seenRoot := false
	var walk func(n *html.Node, group string)
	walk = func(n *html.Node, group string) {
		if n.Type == html.ElementNode && n.Data == "svg" && !seenRoot {
			seenRoot = true
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, group)
			}
			return
		}
		if n.Type == html.ElementNode {
			id := attr(n, "id")
			classes := strings.Fields(attr(n, "class"))
			isNode := false
			for _, c := range classes {
				if c == NodeClass {
					isNode = true
					break
				}
			}
			if isNode && id != "" {
				group = id
			}
			if id != "" || isNode {
				el := Element{ID: id, Classes: classes, Group: group}
				if isNode {
					el.Label = nodeLabel(n)
				}
				out = append(out, el)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, group)
		}
	}
	walk(root, "")
	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeLabel returns the text of the first descendant marked as a label, or
// the node's whole text when it has none.
func nodeLabel(n *html.Node) string {
	if l := findClass(n, LabelClass); l != nil {
		return collapse(text(l))
	}
	return collapse(text(n))
}

func findClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			for _, cl := range strings.Fields(attr(c, "class")) {
				if cl == class {
					return c
				}
			}
		}
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
