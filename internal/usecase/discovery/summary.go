package discovery

import "framefill/internal/domain/entity"

// Summarize builds the stage 1 form summary. Only eligible fields are
// counted; ineligible ones stay in the detected forms for inspection.
func Summarize(detected *entity.DetectedForms) entity.FormSummary {
	summary := entity.FormSummary{
		Categories: make(map[string]int),
		PageURL:    detected.PageURL,
		PageTitle:  detected.PageTitle,
	}
	for _, form := range detected.Forms {
		eligible := form.EligibleFields()
		if len(eligible) == 0 {
			continue
		}
		summary.TotalForms++
		summary.TotalFields += len(eligible)
		for _, f := range eligible {
			summary.Categories[f.Category]++
		}
	}
	return summary
}

// EligibleForms drops ineligible fields and forms left without any.
func EligibleForms(forms []entity.FormDescriptor) []entity.FormDescriptor {
	var result []entity.FormDescriptor
	for _, form := range forms {
		eligible := form.EligibleFields()
		if len(eligible) == 0 {
			continue
		}
		form.Fields = eligible
		result = append(result, form)
	}
	return result
}
