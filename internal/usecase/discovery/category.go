package discovery

import (
	"strings"
	"unicode"

	"framefill/internal/domain/entity"
)

const (
	CategoryContact    = "contact"
	CategoryDate       = "date"
	CategoryRating     = "rating"
	CategoryNumeric    = "numeric"
	CategoryChoice     = "choice"
	CategoryFreeText   = "freetext"
	CategoryCredential = "credential"
	CategorySearch     = "search"
	CategoryGeneral    = "general"
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryRating, []string{"rating", "rate", "score", "stars", "satisfaction"}},
	{CategoryDate, []string{"date", "birth", "dob", "day", "month", "year"}},
	{CategoryContact, []string{"email", "e-mail", "phone", "tel", "mobile", "name", "address", "street", "city", "zip", "postal", "country", "company"}},
	{CategoryNumeric, []string{"amount", "price", "quantity", "qty", "age", "count", "number"}},
	{CategoryFreeText, []string{"comment", "message", "description", "feedback", "notes", "details", "review"}},
}

// Categorize tags a field from its type first, then from keywords in its
// name, id, label and placeholder. Same attributes always give the same tag.
func Categorize(f entity.FieldDescriptor) string {
	switch f.Type {
	case "email", "tel":
		return CategoryContact
	case "date", "datetime-local", "time", "month", "week":
		return CategoryDate
	case "range":
		return CategoryRating
	case "password":
		return CategoryCredential
	case "search":
		return CategorySearch
	}

	tokens := strings.FieldsFunc(
		strings.ToLower(strings.Join([]string{f.Name, f.OriginalID, f.Label, f.Placeholder}, " ")),
		func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' },
	)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if matchesKeyword(tokens, w) {
				return entry.category
			}
		}
	}

	switch f.Type {
	case "number":
		return CategoryNumeric
	case entity.FieldTypeSelect, entity.FieldTypeRadio, entity.FieldTypeCheckbox:
		return CategoryChoice
	case entity.FieldTypeTextarea:
		return CategoryFreeText
	}
	return CategoryGeneral
}

// matchesKeyword matches short keywords as whole tokens only, so "tel"
// does not fire on "hotel".
func matchesKeyword(tokens []string, word string) bool {
	for _, t := range tokens {
		if t == word || (len(word) >= 4 && strings.Contains(t, word)) {
			return true
		}
	}
	return false
}
