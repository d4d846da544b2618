package dom

import (
	"fmt"
	"strings"

	"framefill/internal/application/port/output"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	_ output.DocumentTree   = (*Document)(nil)
	_ output.DocumentParser = (*Parser)(nil)
)

// Parser builds goquery-backed document trees.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(raw string) (output.DocumentTree, error) {
	return Parse(raw)
}

// Document implements output.DocumentTree over a goquery document.
type Document struct {
	doc *goquery.Document
}

func Parse(raw string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

func (d *Document) Root() *html.Node {
	return d.doc.Get(0)
}

func (d *Document) Query(selector string) []*html.Node {
	return d.doc.Find(selector).Nodes
}

func (d *Document) QueryWithin(node *html.Node, selector string) []*html.Node {
	return d.sel(node).Find(selector).Nodes
}

func (d *Document) Text(node *html.Node) string {
	return d.sel(node).Text()
}

func (d *Document) HTML(node *html.Node) (string, error) {
	return goquery.OuterHtml(d.sel(node))
}

func (d *Document) Attr(node *html.Node, name string) (string, bool) {
	return d.sel(node).Attr(name)
}

func (d *Document) SetAttr(node *html.Node, name, value string) {
	d.sel(node).SetAttr(name, value)
}

func (d *Document) RemoveAttribute(node *html.Node, name string) {
	d.sel(node).RemoveAttr(name)
}

func (d *Document) Replace(node *html.Node, content string) {
	d.sel(node).ReplaceWithHtml(content)
}

func (d *Document) Append(node *html.Node, content string) {
	d.sel(node).AppendHtml(content)
}

func (d *Document) Remove(node *html.Node) {
	d.sel(node).Remove()
}

func (d *Document) Render() (string, error) {
	return d.doc.Html()
}

func (d *Document) XPath(node *html.Node) string {
	return XPath(node)
}

func (d *Document) CSSPath(node *html.Node) string {
	return CSSPath(node)
}

// Selection exposes the goquery selection for a node to callers that need
// traversal beyond the port.
func (d *Document) Selection(node *html.Node) *goquery.Selection {
	return d.sel(node)
}

func (d *Document) sel(node *html.Node) *goquery.Selection {
	if node == nil || node == d.doc.Get(0) {
		return d.doc.Selection
	}
	return d.doc.FindNodes(node)
}
