package userinteraction

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"framefill/internal/domain/entity"

	"github.com/fatih/color"
)

// Console prints pipeline progress for the CLI and reads user content.
type Console struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// AskContent reads free text until an empty line or EOF.
func (u *Console) AskContent(question string) (string, error) {
	fmt.Fprintf(u.out, "\n[USER INPUT REQUIRED] %s\n(finish with an empty line)\n> ", question)

	var lines []string
	for {
		line, err := u.reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" && (err == nil || len(lines) > 0) {
			break
		}
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read user input: %w", err)
		}
	}

	content := strings.TrimSpace(strings.Join(lines, "\n"))
	if content == "" {
		return "", fmt.Errorf("no content given")
	}
	return content, nil
}

func (u *Console) ShowStage(stage entity.Stage, detail string) {
	icon, name := stageDisplay(stage)
	color.New(color.FgYellow, color.Bold).Fprintf(u.out, "\n%s %s\n", icon, name)
	if detail != "" {
		color.New(color.Faint).Fprintf(u.out, "   %s\n", truncate(detail, 80))
	}
}

func (u *Console) ShowError(err error) {
	color.New(color.FgRed).Fprint(u.out, "✗ ")
	color.New(color.Faint).Fprintln(u.out, truncate(err.Error(), 300))
}

func (u *Console) ShowOK(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (u *Console) ShowExtraction(result *entity.ExtractionResult) {
	u.ShowOK("%s (%d frames%s)", result.Title, len(result.Frames), fallbackNote(result.UsedFallback))
	dim := color.New(color.Faint)
	s := result.Stats
	dim.Fprintf(u.out, "   original %d B, cleaned %d B, markdown %d B (%s smaller)\n",
		s.OriginalSize, s.CleanedSize, s.MarkdownSize, s.CompressionRatios.Markdown)
	dim.Fprintf(u.out, "   %d words, %s read, %d chunks\n", s.WordCount, s.ReadingTime, s.ChunkCount)
	for _, r := range result.Merged.ProcessedFrames {
		line := fmt.Sprintf("   frame %s %s [%s]", r.IndexPath, truncate(r.Src, 50), r.Status)
		if r.ErrorReason != "" {
			line += " " + r.ErrorReason
		}
		dim.Fprintln(u.out, line)
	}
}

func (u *Console) ShowForms(detected *entity.DetectedForms) {
	u.ShowOK("%d forms on %s", len(detected.Forms), detected.PageTitle)
	dim := color.New(color.Faint)
	for _, form := range detected.Forms {
		dim.Fprintf(u.out, "   %s: %d fields, %d fillable\n", form.ID, len(form.Fields), len(form.EligibleFields()))
	}
}

func (u *Console) ShowRelevance(result *entity.RelevanceResult) {
	u.ShowOK("selected %s", result.SelectedForm.ID)
	if result.Rationale != "" {
		color.New(color.Faint).Fprintf(u.out, "   %s\n", truncate(result.Rationale, 200))
	}
}

func (u *Console) ShowMapping(result *entity.FieldMappingResult) {
	u.ShowOK("%d values mapped", len(result.Mappings))
	dim := color.New(color.Faint)
	for _, m := range result.Mappings {
		dim.Fprintf(u.out, "   %s → %s\n", m.FieldID, truncate(m.Value, 60))
	}
}

func (u *Console) ShowFillReport(report *entity.FillReport) {
	failed := report.Failed()
	if report.Success {
		u.ShowOK("%d fields filled", len(report.Outcomes))
	} else {
		color.New(color.FgRed).Fprintf(u.out, "✗ %d of %d fields failed\n", len(failed), len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if o.Applied && o.Error == "" {
			continue
		}
		color.New(color.Faint).Fprintf(u.out, "   %s: %s\n", o.FieldID, truncate(o.Error, 120))
	}
}

func stageDisplay(stage entity.Stage) (string, string) {
	displays := map[entity.Stage][2]string{
		entity.StageDetect:  {"🔍", "Detecting forms"},
		entity.StageAnalyze: {"🧭", "Selecting the relevant form"},
		entity.StageMap:     {"🧩", "Mapping content to fields"},
		entity.StageFill:    {"✏️", "Filling fields"},
	}
	if display, ok := displays[stage]; ok {
		return display[0], display[1]
	}
	return "🔧", string(stage)
}

func fallbackNote(used bool) string {
	if used {
		return ", direct read"
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
