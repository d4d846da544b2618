package entity

// FrameContent is what a readable frame yields.
type FrameContent struct {
	HTML   string `json:"html"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// FrameNode describes one discovered frame. IndexPath is a dot-separated
// list of sibling indices ("0.1") assigned once during the walk.
type FrameNode struct {
	IndexPath  string        `json:"indexPath"`
	Depth      int           `json:"depth"`
	Src        string        `json:"src"`
	Name       string        `json:"name"`
	Accessible bool          `json:"accessible"`
	Content    *FrameContent `json:"content,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// HasContent reports whether the frame produced non-empty HTML.
func (f FrameNode) HasContent() bool {
	return f.Accessible && f.Content != nil && f.Content.HTML != ""
}

// ContentSize is the length of the frame HTML, zero when unavailable.
func (f FrameNode) ContentSize() int {
	if !f.HasContent() {
		return 0
	}
	return len(f.Content.HTML)
}

const (
	FrameErrorAccessDenied = "access-denied"
	FrameErrorUnavailable  = "unavailable"
	FrameErrorTimeout      = "timeout"
	FrameErrorEmpty        = "empty-content"
	FrameErrorMaxDepth     = "max-depth"
)

type FrameStatus string

const (
	FrameStatusMatched     FrameStatus = "matched"
	FrameStatusAdditional  FrameStatus = "additional"
	FrameStatusUnavailable FrameStatus = "unavailable"
)

type ProcessedFrameRecord struct {
	IndexPath   string      `json:"indexPath"`
	Src         string      `json:"src"`
	Name        string      `json:"name"`
	Status      FrameStatus `json:"status"`
	Size        int         `json:"size"`
	ErrorReason string      `json:"errorReason,omitempty"`
}

// MergedDocument is the main page with every frame's content folded in.
type MergedDocument struct {
	HTML            string                 `json:"html"`
	ProcessedFrames []ProcessedFrameRecord `json:"processedFrames"`
}

// MergedSize sums the sizes of matched and additional records.
func (m *MergedDocument) MergedSize() int {
	total := 0
	for _, r := range m.ProcessedFrames {
		if r.Status != FrameStatusUnavailable {
			total += r.Size
		}
	}
	return total
}

// PageExtraction is the raw payload of a frame-aware page extraction.
type PageExtraction struct {
	MainPage FrameContent `json:"mainPage"`
	Iframes  []FrameNode  `json:"iframes"`
}
