package output

import "golang.org/x/net/html"

// DocumentTree is a queryable, mutable parsed HTML document. Nodes are
// the parser's own handles and stay valid until removed or replaced.
type DocumentTree interface {
	Root() *html.Node
	Query(selector string) []*html.Node
	QueryWithin(node *html.Node, selector string) []*html.Node
	Text(node *html.Node) string
	HTML(node *html.Node) (string, error)
	Attr(node *html.Node, name string) (string, bool)
	SetAttr(node *html.Node, name, value string)
	RemoveAttribute(node *html.Node, name string)
	Replace(node *html.Node, content string)
	Append(node *html.Node, content string)
	Remove(node *html.Node)
	Render() (string, error)

	// XPath and CSSPath address node structurally, for re-resolution later.
	XPath(node *html.Node) string
	CSSPath(node *html.Node) string
}

type DocumentParser interface {
	Parse(raw string) (DocumentTree, error)
}
