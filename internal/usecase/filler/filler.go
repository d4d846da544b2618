// Package filler applies mapped values to live form controls.
package filler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

type Filler struct {
	resolver output.FillTargetResolver
	logger   output.LoggerPort
}

func New(resolver output.FillTargetResolver, logger output.LoggerPort) *Filler {
	return &Filler{resolver: resolver, logger: logger}
}

// Fill applies every mapping in order. A failure on one field never stops
// the others; the report lists one outcome per mapping.
func (f *Filler) Fill(ctx context.Context, req entity.FillRequest) *entity.FillReport {
	fields := make(map[string]entity.FieldDescriptor, len(req.Fields))
	for _, field := range req.Fields {
		fields[field.ID] = field
	}
	targets := make(map[string]output.FillTarget)

	report := &entity.FillReport{Outcomes: make([]entity.FillOutcome, 0, len(req.Mappings))}
	for _, m := range req.Mappings {
		outcome := f.fillOne(ctx, fields, targets, m, req.Options)
		if outcome.Error != "" {
			f.logger.Warn("Field not filled", "fieldId", m.FieldID, "applied", outcome.Applied, "error", outcome.Error)
		} else {
			f.logger.Debug("Field filled", "fieldId", m.FieldID)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.Success = len(report.Failed()) == 0
	f.logger.Info("Fill finished",
		"fields", len(report.Outcomes),
		"failed", len(report.Failed()),
		"success", report.Success)
	return report
}

func (f *Filler) fillOne(
	ctx context.Context,
	fields map[string]entity.FieldDescriptor,
	targets map[string]output.FillTarget,
	m entity.FieldValue,
	opts entity.FillOptions,
) entity.FillOutcome {
	outcome := entity.FillOutcome{FieldID: m.FieldID}

	field, ok := fields[m.FieldID]
	if !ok {
		outcome.Error = fmt.Sprintf("unknown field %s", m.FieldID)
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	el, err := f.resolve(ctx, targets, field)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if opts.Backup {
		current, err := el.Value(ctx)
		if err != nil {
			outcome.BackupError = err.Error()
			f.logger.Warn("Backup read failed", "fieldId", m.FieldID, "error", err)
		} else {
			outcome.BackupValue = current
		}
	}

	if err := assign(ctx, el, m.Value); err != nil {
		outcome.Error = fmt.Sprintf("assign: %v", err)
		return outcome
	}
	outcome.Applied = true
	outcome.AppliedValue = m.Value

	if opts.Validate {
		got, err := el.Value(ctx)
		switch {
		case err != nil:
			outcome.Error = fmt.Sprintf("read back: %v", err)
		case !sameValue(el.Kind(), got, m.Value):
			outcome.Error = fmt.Errorf("%w: want %q, got %q", entity.ErrFillValidation, m.Value, got).Error()
		}
	}

	if opts.Highlight {
		_ = el.Highlight(ctx)
	}
	return outcome
}

// resolve finds the live element, by selector first and XPath second.
func (f *Filler) resolve(ctx context.Context, targets map[string]output.FillTarget, field entity.FieldDescriptor) (output.FieldElement, error) {
	target, ok := targets[field.IframePath]
	if !ok {
		t, err := f.resolver.Target(ctx, field.IframePath)
		if err != nil {
			return nil, fmt.Errorf("resolve document for %s: %w", field.ID, err)
		}
		target = t
		targets[field.IframePath] = t
	}

	var selErr error
	if field.Selector != "" {
		el, err := target.BySelector(ctx, field.Selector)
		if err == nil {
			return el, nil
		}
		selErr = err
	}
	if field.XPath != "" {
		el, err := target.ByXPath(ctx, field.XPath)
		if err == nil {
			f.logger.Debug("Field resolved by xpath", "fieldId", field.ID, "xpath", field.XPath)
			return el, nil
		}
		return nil, fmt.Errorf("%s: %w", field.ID, errors.Join(selErr, err))
	}
	if selErr != nil {
		return nil, fmt.Errorf("%s: %w", field.ID, selErr)
	}
	return nil, fmt.Errorf("%s: %w", field.ID, entity.ErrFieldNotFound)
}

func assign(ctx context.Context, el output.FieldElement, value string) error {
	switch el.Kind() {
	case output.KindSelect:
		return el.SelectOption(ctx, value)
	case output.KindRadio:
		return el.Check(ctx, []string{strings.TrimSpace(value)})
	case output.KindCheckbox:
		err := el.Check(ctx, splitValues(value))
		if err != nil && truthy(value) {
			return el.Check(ctx, []string{"on"})
		}
		return err
	default:
		return el.SetValue(ctx, value)
	}
}

// splitValues turns "a, b" into the checkbox values to check. A negative
// answer unchecks the whole group.
func splitValues(value string) []string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "no", "off", "unchecked":
		return nil
	}
	var values []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "checked", "1":
		return true
	}
	return false
}

func sameValue(kind output.ElementKind, got, want string) bool {
	switch kind {
	case output.KindCheckbox:
		if truthy(want) && got != "" && !strings.Contains(got, ",") {
			return true
		}
		a, b := splitValues(got), splitValues(want)
		sort.Strings(a)
		sort.Strings(b)
		return strings.Join(a, ",") == strings.Join(b, ",")
	case output.KindRadio:
		return got == strings.TrimSpace(want)
	}
	return got == want
}
