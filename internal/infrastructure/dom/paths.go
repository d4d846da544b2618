package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// XPath computes an absolute XPath for an element. Sibling indices are
// emitted only when more than one sibling shares the tag.
func XPath(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		idx, total := tagIndex(cur)
		if total > 1 {
			parts = append(parts, fmt.Sprintf("%s[%d]", cur.Data, idx))
		} else {
			parts = append(parts, cur.Data)
		}
	}
	reverse(parts)
	return "/" + strings.Join(parts, "/")
}

// CSSPath computes a child-combinator selector using :nth-of-type.
func CSSPath(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		idx, total := tagIndex(cur)
		if total > 1 {
			parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, idx))
		} else {
			parts = append(parts, cur.Data)
		}
	}
	reverse(parts)
	return strings.Join(parts, " > ")
}

// FindXPath resolves an absolute XPath of the form produced by XPath.
func FindXPath(root *html.Node, xpath string) *html.Node {
	if root == nil || !strings.HasPrefix(xpath, "/") {
		return nil
	}
	cur := root
	for _, step := range strings.Split(strings.Trim(xpath, "/"), "/") {
		tag, idx, ok := parseStep(step)
		if !ok {
			return nil
		}
		cur = nthChild(cur, tag, idx)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func parseStep(step string) (string, int, bool) {
	open := strings.IndexByte(step, '[')
	if open < 0 {
		return strings.ToLower(step), 1, step != ""
	}
	if !strings.HasSuffix(step, "]") {
		return "", 0, false
	}
	idx, err := strconv.Atoi(step[open+1 : len(step)-1])
	if err != nil || idx < 1 {
		return "", 0, false
	}
	return strings.ToLower(step[:open]), idx, true
}

func nthChild(parent *html.Node, tag string, idx int) *html.Node {
	seen := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			seen++
			if seen == idx {
				return c
			}
		}
	}
	return nil
}

func tagIndex(n *html.Node) (idx, total int) {
	if n.Parent == nil {
		return 1, 1
	}
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != n.Data {
			continue
		}
		total++
		if c == n {
			idx = total
		}
	}
	return idx, total
}

func reverse(parts []string) {
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
}
