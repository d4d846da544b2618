package stats

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+$`)
	imageRe    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe     = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	fenceRe    = regexp.MustCompile("```[a-zA-Z0-9_-]*")
	headingRe  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	markerRe   = regexp.MustCompile("[*_~`>]+")
)

// Chunk splits text on sentence boundaries into chunks of at most maxSize
// characters. A sentence longer than maxSize becomes its own chunk and is
// never cut. Text that already fits is returned as a single chunk.
func Chunk(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}
	for _, sentence := range sentenceRe.FindAllString(text, -1) {
		if current.Len() > 0 && current.Len()+len(sentence) > maxSize {
			flush()
		}
		current.WriteString(sentence)
	}
	flush()

	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}

// CountWords counts whitespace-separated words after removing markdown
// images, links and formatting markers.
func CountWords(markdown string) int {
	text := imageRe.ReplaceAllString(markdown, " ")
	text = linkRe.ReplaceAllString(text, " ")
	text = fenceRe.ReplaceAllString(text, " ")
	text = headingRe.ReplaceAllString(text, "")
	text = markerRe.ReplaceAllString(text, " ")
	return len(strings.Fields(text))
}

// ReadingTime renders ceil(words/wpm) as "1 minute" or "<n> minutes".
func ReadingTime(words, wpm int) string {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	minutes := int(math.Ceil(float64(words) / float64(wpm)))
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// CompressionRatio is the size reduction relative to original, one decimal.
func CompressionRatio(original, size int) string {
	if original == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", (1-float64(size)/float64(original))*100)
}
