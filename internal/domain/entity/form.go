package entity

type FieldSource string

const (
	SourceMain   FieldSource = "main"
	SourceIframe FieldSource = "iframe"
)

const (
	FieldTypeHidden   = "hidden"
	FieldTypeSelect   = "select"
	FieldTypeTextarea = "textarea"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
)

// FieldDescriptor describes one fillable control. Selector is tried first
// when re-resolving the element; XPath is the fallback.
type FieldDescriptor struct {
	ID          string      `json:"id"`
	OriginalID  string      `json:"originalId"`
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	Placeholder string      `json:"placeholder"`
	Category    string      `json:"category"`
	Required    bool        `json:"required"`
	Visible     bool        `json:"visible"`
	Editable    bool        `json:"editable"`
	Selector    string      `json:"selector"`
	XPath       string      `json:"xpath"`
	Source      FieldSource `json:"source"`
	IframePath  string      `json:"iframePath,omitempty"`
	Options     []string    `json:"options,omitempty"`
}

// Eligible reports whether the field may be sent to the mapping stages.
func (f FieldDescriptor) Eligible() bool {
	return f.Visible && f.Editable && f.Type != FieldTypeHidden
}

type FormDescriptor struct {
	ID         string            `json:"id"`
	Source     FieldSource       `json:"source"`
	IframePath string            `json:"iframePath,omitempty"`
	Action     string            `json:"action,omitempty"`
	Fields     []FieldDescriptor `json:"fields"`
}

// EligibleFields returns the fields that pass Eligible, in order.
func (f FormDescriptor) EligibleFields() []FieldDescriptor {
	result := make([]FieldDescriptor, 0, len(f.Fields))
	for _, field := range f.Fields {
		if field.Eligible() {
			result = append(result, field)
		}
	}
	return result
}

// Field finds a field by id.
func (f FormDescriptor) Field(id string) (FieldDescriptor, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// FormSummary is the compact view of detected forms sent to stage 1.
type FormSummary struct {
	TotalForms  int            `json:"totalForms"`
	TotalFields int            `json:"totalFields"`
	Categories  map[string]int `json:"categories"`
	PageURL     string         `json:"pageUrl"`
	PageTitle   string         `json:"pageTitle"`
}

type DetectedForms struct {
	Forms     []FormDescriptor `json:"forms"`
	PageURL   string           `json:"pageUrl"`
	PageTitle string           `json:"pageTitle"`
	// Page is the extraction the forms were discovered in.
	Page *PageExtraction `json:"page,omitempty"`
}
