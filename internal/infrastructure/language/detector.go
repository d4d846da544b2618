package language

import (
	"strings"
	"unicode/utf8"

	"framefill/internal/application/port/output"

	"github.com/pemistahl/lingua-go"
)

var _ output.LanguagePort = (*Detector)(nil)

// minTextLength is the shortest text worth classifying.
const minTextLength = 20

// Languages loaded by default. Each one costs model memory.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Polish,
	lingua.Russian,
	lingua.Ukrainian,
}

type Detector struct {
	detector lingua.LanguageDetector
}

func New(languages ...lingua.Language) *Detector {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithMinimumRelativeDistance(0.1).
			Build(),
	}
}

// Detect returns the English name of the text's language, e.g. "German".
func (d *Detector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minTextLength {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	name := strings.ToLower(lang.String())
	return strings.ToUpper(name[:1]) + name[1:], true
}
