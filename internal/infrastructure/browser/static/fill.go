package static

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/dom"

	"golang.org/x/net/html"
)

const highlightAttr = "data-framefill-highlight"

// Target resolves the document owning iframePath by following frame tags
// from the root document.
func (s *Site) Target(ctx context.Context, iframePath string) (output.FillTarget, error) {
	src := s.rootSrc
	if iframePath != "" {
		for _, part := range strings.Split(iframePath, ".") {
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid iframe path %q", iframePath)
			}
			doc, err := s.document(src)
			if err != nil {
				return nil, err
			}
			frames := doc.Query("iframe, frame")
			if idx < 0 || idx >= len(frames) {
				return nil, fmt.Errorf("iframe path %q: %w", iframePath, entity.ErrFieldNotFound)
			}
			src, _ = doc.Attr(frames[idx], "src")
		}
	}
	if p, ok := s.lookup(src); ok && p.denied {
		return nil, entity.ErrAccessDenied
	}
	doc, err := s.document(src)
	if err != nil {
		return nil, err
	}
	return &target{doc: doc}, nil
}

type target struct {
	doc *dom.Document
}

func (t *target) BySelector(ctx context.Context, selector string) (output.FieldElement, error) {
	if selector == "" {
		return nil, entity.ErrFieldNotFound
	}
	nodes := t.doc.Query(selector)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("selector %s: %w", selector, entity.ErrFieldNotFound)
	}
	return t.element(nodes), nil
}

func (t *target) ByXPath(ctx context.Context, xpath string) (output.FieldElement, error) {
	n := dom.FindXPath(t.doc.Root(), xpath)
	if n == nil {
		return nil, fmt.Errorf("xpath %s: %w", xpath, entity.ErrFieldNotFound)
	}
	return t.element([]*html.Node{n}), nil
}

func (t *target) element(nodes []*html.Node) *element {
	first := nodes[0]
	kind := kindOf(t.doc, first)
	if kind == output.KindRadio || kind == output.KindCheckbox {
		if name, ok := t.doc.Attr(first, "name"); ok && name != "" && len(nodes) == 1 {
			nodes = t.group(first, name)
		}
	} else {
		nodes = nodes[:1]
	}
	return &element{doc: t.doc, nodes: nodes, kind: kind}
}

func (t *target) group(first *html.Node, name string) []*html.Node {
	var group []*html.Node
	for _, n := range t.doc.Query("input") {
		if v, _ := t.doc.Attr(n, "name"); v == name && kindOf(t.doc, n) == kindOf(t.doc, first) {
			group = append(group, n)
		}
	}
	return group
}

func kindOf(doc *dom.Document, n *html.Node) output.ElementKind {
	switch n.Data {
	case "select":
		return output.KindSelect
	case "textarea":
		return output.KindTextarea
	}
	typ, _ := doc.Attr(n, "type")
	switch strings.ToLower(typ) {
	case "radio":
		return output.KindRadio
	case "checkbox":
		return output.KindCheckbox
	}
	return output.KindInput
}

type element struct {
	doc   *dom.Document
	nodes []*html.Node
	kind  output.ElementKind
}

func (e *element) Kind() output.ElementKind {
	return e.kind
}

func (e *element) Value(ctx context.Context) (string, error) {
	n := e.nodes[0]
	switch e.kind {
	case output.KindTextarea:
		return e.doc.Text(n), nil
	case output.KindSelect:
		options := e.doc.QueryWithin(n, "option")
		for _, opt := range options {
			if _, ok := e.doc.Attr(opt, "selected"); ok {
				return optionValue(e.doc, opt), nil
			}
		}
		if len(options) > 0 {
			return optionValue(e.doc, options[0]), nil
		}
		return "", nil
	case output.KindRadio, output.KindCheckbox:
		var checked []string
		for _, c := range e.nodes {
			if _, ok := e.doc.Attr(c, "checked"); ok {
				checked = append(checked, checkValue(e.doc, c))
			}
		}
		return strings.Join(checked, ","), nil
	}
	v, _ := e.doc.Attr(n, "value")
	return v, nil
}

func (e *element) SetValue(ctx context.Context, value string) error {
	n := e.nodes[0]
	if err := e.writable(n); err != nil {
		return err
	}
	if e.kind == output.KindTextarea {
		e.doc.Selection(n).SetText(value)
		return nil
	}
	if typ, _ := e.doc.Attr(n, "type"); strings.EqualFold(typ, "number") {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			// Browsers drop non-numeric input on number fields.
			e.doc.SetAttr(n, "value", "")
			return nil
		}
	}
	e.doc.SetAttr(n, "value", value)
	return nil
}

func (e *element) SelectOption(ctx context.Context, value string) error {
	n := e.nodes[0]
	if err := e.writable(n); err != nil {
		return err
	}
	options := e.doc.QueryWithin(n, "option")
	var match *html.Node
	for _, opt := range options {
		if optionValue(e.doc, opt) == value {
			match = opt
			break
		}
	}
	if match == nil {
		return fmt.Errorf("option %q not found", value)
	}
	for _, opt := range options {
		e.doc.RemoveAttribute(opt, "selected")
	}
	e.doc.SetAttr(match, "selected", "selected")
	return nil
}

func (e *element) Check(ctx context.Context, values []string) error {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	matched := 0
	for _, n := range e.nodes {
		if want[checkValue(e.doc, n)] {
			matched++
		}
	}
	if len(values) > 0 && matched == 0 {
		return fmt.Errorf("no option with value %q", strings.Join(values, ","))
	}
	for _, n := range e.nodes {
		if err := e.writable(n); err != nil {
			return err
		}
		if want[checkValue(e.doc, n)] {
			e.doc.SetAttr(n, "checked", "checked")
		} else {
			e.doc.RemoveAttribute(n, "checked")
		}
	}
	return nil
}

func (e *element) Highlight(ctx context.Context) error {
	for _, n := range e.nodes {
		e.doc.SetAttr(n, highlightAttr, "1")
	}
	return nil
}

func (e *element) writable(n *html.Node) error {
	if _, ok := e.doc.Attr(n, "disabled"); ok {
		return fmt.Errorf("element is disabled")
	}
	if _, ok := e.doc.Attr(n, "readonly"); ok {
		return fmt.Errorf("element is read-only")
	}
	return nil
}

func optionValue(doc *dom.Document, opt *html.Node) string {
	if v, ok := doc.Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(doc.Text(opt))
}

// checkValue is what a checked box submits; "on" without a value attribute.
func checkValue(doc *dom.Document, n *html.Node) string {
	if v, ok := doc.Attr(n, "value"); ok {
		return v
	}
	return "on"
}
