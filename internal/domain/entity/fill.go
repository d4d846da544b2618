package entity

type FillOptions struct {
	Backup    bool `json:"backup"`
	Validate  bool `json:"validate"`
	Highlight bool `json:"highlight"`
}

// FillOutcome records what happened to one field during a fill.
type FillOutcome struct {
	FieldID      string `json:"fieldId"`
	Applied      bool   `json:"applied"`
	BackupValue  string `json:"backupValue"`
	// BackupError is set when the previous value could not be read;
	// BackupValue is then not a valid rollback value.
	BackupError  string `json:"backupError,omitempty"`
	AppliedValue string `json:"appliedValue,omitempty"`
	Error        string `json:"error,omitempty"`
}

// FillReport is the result of one fill invocation.
type FillReport struct {
	Success  bool          `json:"success"`
	Outcomes []FillOutcome `json:"outcomes"`
}

// Failed returns the outcomes that were not applied cleanly.
func (r FillReport) Failed() []FillOutcome {
	var failed []FillOutcome
	for _, o := range r.Outcomes {
		if !o.Applied || o.Error != "" {
			failed = append(failed, o)
		}
	}
	return failed
}

type FillRequest struct {
	Fields   []FieldDescriptor `json:"fields"`
	Mappings []FieldValue      `json:"mappings"`
	Options  FillOptions       `json:"options"`
}
