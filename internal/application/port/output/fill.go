package output

import "context"

type ElementKind string

const (
	KindInput    ElementKind = "input"
	KindTextarea ElementKind = "textarea"
	KindSelect   ElementKind = "select"
	KindRadio    ElementKind = "radio"
	KindCheckbox ElementKind = "checkbox"
)

// FieldElement is a live form control, or a radio/checkbox group sharing
// a name.
type FieldElement interface {
	Kind() ElementKind
	Value(ctx context.Context) (string, error)
	SetValue(ctx context.Context, value string) error
	SelectOption(ctx context.Context, value string) error
	Check(ctx context.Context, values []string) error
	Highlight(ctx context.Context) error
}

type FillTarget interface {
	BySelector(ctx context.Context, selector string) (FieldElement, error)
	ByXPath(ctx context.Context, xpath string) (FieldElement, error)
}

// FillTargetResolver locates the document owning a field. An empty
// iframePath means the main document.
type FillTargetResolver interface {
	Target(ctx context.Context, iframePath string) (FillTarget, error)
}
