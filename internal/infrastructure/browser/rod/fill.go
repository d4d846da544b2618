package rod

import (
	"context"
	"fmt"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"github.com/go-rod/rod"
)

const (
	kindJS     = `() => (this.tagName || "").toLowerCase() + ":" + (this.type || "").toLowerCase()`
	writableJS = `() => this.disabled ? "element is disabled" : (this.readOnly ? "element is read-only" : "")`
	// The native setter keeps framework-controlled inputs in sync.
	setValueJS = `(v) => {
		const proto = Object.getPrototypeOf(this);
		const desc = Object.getOwnPropertyDescriptor(proto, "value");
		if (desc && desc.set) { desc.set.call(this, v); } else { this.value = v; }
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
	}`
	selectJS = `(v) => {
		const opt = Array.from(this.options).find(o => o.value === v);
		if (!opt) { return false; }
		this.value = opt.value;
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	}`
	setCheckedJS = `(on) => {
		if (this.checked === on) { return; }
		this.checked = on;
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
	}`
	highlightJS = `() => {
		this.style.outline = "2px solid #f5a623";
		this.style.outlineOffset = "1px";
		this.setAttribute("data-framefill-highlight", "1");
	}`
)

func (b *BrowserAdapter) Target(ctx context.Context, iframePath string) (output.FillTarget, error) {
	page, err := frameAt(ctx, b.page, iframePath)
	if err != nil {
		return nil, err
	}
	return &target{page: page}, nil
}

type target struct {
	page *rod.Page
}

func (t *target) BySelector(ctx context.Context, selector string) (output.FieldElement, error) {
	if selector == "" {
		return nil, entity.ErrFieldNotFound
	}
	elements, err := t.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %s: %w", selector, classify(err))
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("selector %s: %w", selector, entity.ErrFieldNotFound)
	}
	return t.element(ctx, elements)
}

func (t *target) ByXPath(ctx context.Context, xpath string) (output.FieldElement, error) {
	if xpath == "" {
		return nil, entity.ErrFieldNotFound
	}
	elements, err := t.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("xpath %s: %w", xpath, classify(err))
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("xpath %s: %w", xpath, entity.ErrFieldNotFound)
	}
	return t.element(ctx, elements)
}

func (t *target) element(ctx context.Context, elements rod.Elements) (*element, error) {
	first := elements[0]
	res, err := first.Context(ctx).Eval(kindJS)
	if err != nil {
		return nil, fmt.Errorf("inspect element: %w", err)
	}
	tag, typ, _ := strings.Cut(res.Value.Str(), ":")
	kind := kindOf(tag, typ)

	switch kind {
	case output.KindRadio, output.KindCheckbox:
		name := attr(first, "name")
		if len(elements) == 1 && name != "" {
			group, err := t.page.Context(ctx).Elements(fmt.Sprintf("input[type=%q][name=%q]", typ, name))
			if err == nil && len(group) > 0 {
				elements = group
			}
		}
	default:
		elements = elements[:1]
	}
	return &element{els: elements, kind: kind}, nil
}

func kindOf(tag, typ string) output.ElementKind {
	switch tag {
	case "select":
		return output.KindSelect
	case "textarea":
		return output.KindTextarea
	}
	switch typ {
	case "radio":
		return output.KindRadio
	case "checkbox":
		return output.KindCheckbox
	}
	return output.KindInput
}

type element struct {
	els  rod.Elements
	kind output.ElementKind
}

func (e *element) Kind() output.ElementKind {
	return e.kind
}

func (e *element) Value(ctx context.Context) (string, error) {
	if e.kind != output.KindRadio && e.kind != output.KindCheckbox {
		v, err := e.els[0].Context(ctx).Property("value")
		if err != nil {
			return "", fmt.Errorf("read value: %w", err)
		}
		return v.Str(), nil
	}

	var checked []string
	for _, el := range e.els {
		on, value, err := state(ctx, el)
		if err != nil {
			return "", err
		}
		if on {
			checked = append(checked, value)
		}
	}
	return strings.Join(checked, ","), nil
}

func (e *element) SetValue(ctx context.Context, value string) error {
	el := e.els[0].Context(ctx)
	if err := writable(el); err != nil {
		return err
	}
	if _, err := el.Eval(setValueJS, value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

func (e *element) SelectOption(ctx context.Context, value string) error {
	el := e.els[0].Context(ctx)
	if err := writable(el); err != nil {
		return err
	}
	res, err := el.Eval(selectJS, value)
	if err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("option %q not found", value)
	}
	return nil
}

func (e *element) Check(ctx context.Context, values []string) error {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}

	targets := make([]bool, len(e.els))
	matched := 0
	for i, el := range e.els {
		_, value, err := state(ctx, el)
		if err != nil {
			return err
		}
		targets[i] = want[value]
		if targets[i] {
			matched++
		}
	}
	if len(values) > 0 && matched == 0 {
		return fmt.Errorf("no option with value %q", strings.Join(values, ","))
	}

	for i, el := range e.els {
		el = el.Context(ctx)
		if err := writable(el); err != nil {
			return err
		}
		if _, err := el.Eval(setCheckedJS, targets[i]); err != nil {
			return fmt.Errorf("set checked: %w", err)
		}
	}
	return nil
}

func (e *element) Highlight(ctx context.Context) error {
	for _, el := range e.els {
		if _, err := el.Context(ctx).Eval(highlightJS); err != nil {
			return fmt.Errorf("highlight: %w", err)
		}
	}
	return nil
}

func writable(el *rod.Element) error {
	res, err := el.Eval(writableJS)
	if err != nil {
		return fmt.Errorf("inspect element: %w", err)
	}
	if reason := res.Value.Str(); reason != "" {
		return fmt.Errorf("%s", reason)
	}
	return nil
}

// state reads a checkable control. The DOM reports "on" for boxes
// without a value attribute.
func state(ctx context.Context, el *rod.Element) (bool, string, error) {
	el = el.Context(ctx)
	checked, err := el.Property("checked")
	if err != nil {
		return false, "", fmt.Errorf("read checked: %w", err)
	}
	value, err := el.Property("value")
	if err != nil {
		return false, "", fmt.Errorf("read value: %w", err)
	}
	return checked.Bool(), value.Str(), nil
}
