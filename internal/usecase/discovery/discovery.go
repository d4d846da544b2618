// Package discovery enumerates forms and their fields across the main
// document and every readable frame.
package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"golang.org/x/net/html"
)

const controlSelector = "input, select, textarea"

var (
	skippedInputTypes = map[string]bool{
		"submit": true, "button": true, "reset": true, "image": true, "file": true,
	}
	simpleIdentRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	hiddenStyleRe = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden)`)
)

type Discoverer struct {
	parser output.DocumentParser
	logger output.LoggerPort
}

func New(parser output.DocumentParser, logger output.LoggerPort) *Discoverer {
	return &Discoverer{parser: parser, logger: logger}
}

// Discover lists the forms of main and of every frame that yielded content.
// Frames are visited in the order given, which the walker keeps sorted.
func (d *Discoverer) Discover(main entity.FrameContent, frames []entity.FrameNode) (*entity.DetectedForms, error) {
	result := &entity.DetectedForms{PageURL: main.URL, PageTitle: main.Title}

	forms, err := d.discoverDocument(main.HTML, "main", entity.SourceMain, "")
	if err != nil {
		return nil, fmt.Errorf("discover main document: %w", err)
	}
	result.Forms = append(result.Forms, forms...)

	for _, frame := range frames {
		if !frame.HasContent() {
			continue
		}
		forms, err := d.discoverDocument(frame.Content.HTML, "iframe-"+frame.IndexPath, entity.SourceIframe, frame.IndexPath)
		if err != nil {
			d.logger.Warn("Skipping unparsable frame", "indexPath", frame.IndexPath, "error", err)
			continue
		}
		result.Forms = append(result.Forms, forms...)
	}

	d.logger.Info("Forms detected", "forms", len(result.Forms), "frames", len(frames))
	return result, nil
}

func (d *Discoverer) discoverDocument(raw, prefix string, source entity.FieldSource, iframePath string) ([]entity.FormDescriptor, error) {
	doc, err := d.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	s := &scan{doc: doc, source: source, iframePath: iframePath}

	var forms []entity.FormDescriptor
	for i, node := range doc.Query("form") {
		form := s.newForm(fmt.Sprintf("%s-form%d", prefix, i))
		form.Action, _ = doc.Attr(node, "action")
		s.collect(&form, doc.QueryWithin(node, controlSelector))
		forms = append(forms, form)
	}

	var loose []*html.Node
	for _, node := range doc.Query(controlSelector) {
		if !insideForm(node) {
			loose = append(loose, node)
		}
	}
	if len(loose) > 0 {
		form := s.newForm(fmt.Sprintf("%s-form%d", prefix, len(forms)))
		s.collect(&form, loose)
		if len(form.Fields) > 0 {
			forms = append(forms, form)
		}
	}
	return forms, nil
}

type scan struct {
	doc        output.DocumentTree
	source     entity.FieldSource
	iframePath string
}

func (s *scan) newForm(id string) entity.FormDescriptor {
	return entity.FormDescriptor{ID: id, Source: s.source, IframePath: s.iframePath}
}

func (s *scan) collect(form *entity.FormDescriptor, nodes []*html.Node) {
	groups := make(map[string]int)
	for _, node := range nodes {
		typ := fieldType(s.doc, node)
		if skippedInputTypes[typ] {
			continue
		}

		name, _ := s.doc.Attr(node, "name")
		if typ == entity.FieldTypeRadio || typ == entity.FieldTypeCheckbox {
			if name != "" {
				key := typ + "|" + name
				if idx, ok := groups[key]; ok {
					form.Fields[idx].Options = append(form.Fields[idx].Options, checkValue(s.doc, node))
					continue
				}
				groups[key] = len(form.Fields)
			}
		}

		field := s.describe(node, typ, name)
		field.ID = fmt.Sprintf("%s-field%d", form.ID, len(form.Fields))
		form.Fields = append(form.Fields, field)
	}
}

func (s *scan) describe(node *html.Node, typ, name string) entity.FieldDescriptor {
	id, _ := s.doc.Attr(node, "id")
	placeholder, _ := s.doc.Attr(node, "placeholder")
	field := entity.FieldDescriptor{
		OriginalID:  id,
		Name:        name,
		Label:       s.label(node, id),
		Type:        typ,
		Placeholder: placeholder,
		Required:    hasAttr(s.doc, node, "required") || attrIs(s.doc, node, "aria-required", "true"),
		Visible:     visible(s.doc, node, typ),
		Editable:    !hasAttr(s.doc, node, "disabled") && !hasAttr(s.doc, node, "readonly"),
		Selector:    s.selector(node, typ, id, name),
		XPath:       s.doc.XPath(node),
		Source:      s.source,
		IframePath:  s.iframePath,
	}
	if typ == entity.FieldTypeRadio || typ == entity.FieldTypeCheckbox {
		field.Options = []string{checkValue(s.doc, node)}
	}
	if typ == entity.FieldTypeSelect {
		for _, opt := range s.doc.QueryWithin(node, "option") {
			if v, ok := s.doc.Attr(opt, "value"); ok {
				field.Options = append(field.Options, v)
			} else {
				field.Options = append(field.Options, strings.TrimSpace(s.doc.Text(opt)))
			}
		}
	}
	field.Category = Categorize(field)
	return field
}

func (s *scan) label(node *html.Node, id string) string {
	if id != "" && simpleIdentRe.MatchString(id) {
		for _, l := range s.doc.Query(fmt.Sprintf(`label[for="%s"]`, id)) {
			if text := collapse(s.doc.Text(l)); text != "" {
				return text
			}
		}
	}
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			if text := collapse(s.doc.Text(p)); text != "" {
				return text
			}
		}
	}
	if aria, ok := s.doc.Attr(node, "aria-label"); ok {
		return collapse(aria)
	}
	return ""
}

// selector prefers a unique #id, then a name selector, then a structural path.
// Radio and checkbox groups are addressed by name so the whole group resolves.
func (s *scan) selector(node *html.Node, typ, id, name string) string {
	grouped := typ == entity.FieldTypeRadio || typ == entity.FieldTypeCheckbox
	if id != "" && !grouped && simpleIdentRe.MatchString(id) && len(s.doc.Query("#"+id)) == 1 {
		return "#" + id
	}
	if name != "" && !strings.ContainsAny(name, `"\`) {
		sel := fmt.Sprintf(`%s[name="%s"]`, node.Data, name)
		if grouped || len(s.doc.Query(sel)) == 1 {
			return sel
		}
	}
	return s.doc.CSSPath(node)
}

func fieldType(doc output.DocumentTree, node *html.Node) string {
	switch node.Data {
	case "select":
		return entity.FieldTypeSelect
	case "textarea":
		return entity.FieldTypeTextarea
	}
	typ, _ := doc.Attr(node, "type")
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		return "text"
	}
	return typ
}

func visible(doc output.DocumentTree, node *html.Node, typ string) bool {
	if typ == entity.FieldTypeHidden {
		return false
	}
	for n := node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if hasAttr(doc, n, "hidden") {
			return false
		}
		if style, ok := doc.Attr(n, "style"); ok && hiddenStyleRe.MatchString(style) {
			return false
		}
	}
	return true
}

func insideForm(node *html.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return true
		}
	}
	return false
}

func checkValue(doc output.DocumentTree, node *html.Node) string {
	if v, ok := doc.Attr(node, "value"); ok {
		return v
	}
	return "on"
}

func hasAttr(doc output.DocumentTree, node *html.Node, name string) bool {
	_, ok := doc.Attr(node, name)
	return ok
}

func attrIs(doc output.DocumentTree, node *html.Node, name, want string) bool {
	v, ok := doc.Attr(node, name)
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
