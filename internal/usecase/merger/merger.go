package merger

import (
	"fmt"
	"html"
	"strings"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	xhtml "golang.org/x/net/html"
)

const (
	markerStart           = "FRAMEFILL:FRAME-START"
	markerEnd             = "FRAMEFILL:FRAME-END"
	markerAdditionalStart = "FRAMEFILL:ADDITIONAL-FRAME-START"
	markerAdditionalEnd   = "FRAMEFILL:ADDITIONAL-FRAME-END"
)

// Merger folds frame content back into the main document.
//
// Frame tags are matched to FrameNodes by exact src first and by position
// second: the Nth tag of the main document pairs with the Nth top-level
// FrameNode. Nested frames never take part in the positional pairing, since
// their tags live in their parent frame's document. The positional pairing
// can still mis-pair frames when the page changed between the walk and the
// merge; this is a known limitation kept on purpose.
type Merger struct {
	parser output.DocumentParser
	logger output.LoggerPort
}

func New(parser output.DocumentParser, logger output.LoggerPort) *Merger {
	return &Merger{parser: parser, logger: logger}
}

func (m *Merger) Merge(mainHTML string, frames []entity.FrameNode) (*entity.MergedDocument, error) {
	doc, err := m.parser.Parse(mainHTML)
	if err != nil {
		return nil, fmt.Errorf("parse main document: %w", err)
	}

	processed := make(map[string]bool, len(frames))
	records := make(map[string]entity.ProcessedFrameRecord, len(frames))

	var topLevel []int
	for i, f := range frames {
		if f.Depth <= 1 {
			topLevel = append(topLevel, i)
		}
	}

	for i, tag := range doc.Query("iframe, frame") {
		src, _ := doc.Attr(tag, "src")
		idx := matchBySrc(frames, processed, src)
		if idx < 0 && i < len(topLevel) && !processed[frames[topLevel[i]].IndexPath] {
			idx = topLevel[i]
			m.logger.Debug("Frame matched by position", "tagIndex", i, "tagSrc", src, "frameSrc", frames[idx].Src)
		}
		if idx < 0 {
			continue
		}

		frame := frames[idx]
		processed[frame.IndexPath] = true
		if !frame.HasContent() {
			records[frame.IndexPath] = unavailable(frame)
			continue
		}
		doc.Replace(tag, wrap(markerStart, markerEnd, frame, frame.Content.HTML))
		records[frame.IndexPath] = record(frame, entity.FrameStatusMatched)
	}

	var orphans strings.Builder
	for _, frame := range frames {
		if processed[frame.IndexPath] {
			continue
		}
		processed[frame.IndexPath] = true
		if !frame.HasContent() {
			records[frame.IndexPath] = unavailable(frame)
			continue
		}
		orphans.WriteString(wrap(markerAdditionalStart, markerAdditionalEnd, frame,
			`<section class="additional-frame-content">`+frame.Content.HTML+`</section>`))
		records[frame.IndexPath] = record(frame, entity.FrameStatusAdditional)
	}
	if orphans.Len() > 0 {
		target := doc.Root()
		if bodies := doc.Query("body"); len(bodies) > 0 {
			target = bodies[0]
		}
		doc.Append(target, orphans.String())
	}

	rendered, err := doc.Render()
	if err != nil {
		return nil, fmt.Errorf("render merged document: %w", err)
	}

	merged := &entity.MergedDocument{HTML: rendered}
	for _, frame := range frames {
		merged.ProcessedFrames = append(merged.ProcessedFrames, records[frame.IndexPath])
	}
	m.logger.Info("Frames merged",
		"frames", len(frames),
		"mergedSize", merged.MergedSize(),
		"htmlSize", len(rendered))
	return merged, nil
}

func matchBySrc(frames []entity.FrameNode, processed map[string]bool, src string) int {
	if src == "" {
		return -1
	}
	for i, f := range frames {
		if f.Src == src && !processed[f.IndexPath] {
			return i
		}
	}
	return -1
}

func wrap(start, end string, frame entity.FrameNode, content string) string {
	attrs := fmt.Sprintf(` name="%s" src="%s" path="%s" `,
		commentSafe(frame.Name), commentSafe(frame.Src), frame.IndexPath)
	return "<!--" + start + attrs + "-->" + content + "<!--" + end + attrs + "-->"
}

// commentSafe keeps attribute values from terminating the marker comment.
func commentSafe(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "--", "&#45;&#45;")
}

func record(frame entity.FrameNode, status entity.FrameStatus) entity.ProcessedFrameRecord {
	return entity.ProcessedFrameRecord{
		IndexPath: frame.IndexPath,
		Src:       frame.Src,
		Name:      frame.Name,
		Status:    status,
		Size:      frame.ContentSize(),
	}
}

func unavailable(frame entity.FrameNode) entity.ProcessedFrameRecord {
	reason := frame.Error
	if reason == "" {
		reason = entity.FrameErrorUnavailable
	}
	return entity.ProcessedFrameRecord{
		IndexPath:   frame.IndexPath,
		Src:         frame.Src,
		Name:        frame.Name,
		Status:      entity.FrameStatusUnavailable,
		ErrorReason: reason,
	}
}

// StripMarkers removes the frame marker comments from a rendered document.
func StripMarkers(doc string) (string, error) {
	root, err := xhtml.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == xhtml.CommentNode && strings.HasPrefix(strings.TrimSpace(c.Data), "FRAMEFILL:") {
				n.RemoveChild(c)
			} else {
				walk(c)
			}
			c = next
		}
	}
	walk(root)

	var sb strings.Builder
	if err := xhtml.Render(&sb, root); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return sb.String(), nil
}
