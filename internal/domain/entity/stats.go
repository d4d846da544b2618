package entity

type CompressionRatios struct {
	MainPage      string `json:"mainPage"`
	IframeContent string `json:"iframeContent"`
	Cleaned       string `json:"cleaned"`
	Markdown      string `json:"markdown"`
}

// ContentStats reports sizes at each stage of the extraction. Ratios are
// relative to OriginalSize.
type ContentStats struct {
	OriginalSize      int               `json:"originalSize"`
	MainPageSize      int               `json:"mainPageSize"`
	IframeContentSize int               `json:"iframeContentSize"`
	CleanedSize       int               `json:"cleanedSize"`
	MarkdownSize      int               `json:"markdownSize"`
	CompressionRatios CompressionRatios `json:"compressionRatios"`
	WordCount         int               `json:"wordCount"`
	ReadingTime       string            `json:"readingTime"`
	ChunkCount        int               `json:"chunkCount"`
	TokenEstimate     int               `json:"tokenEstimate,omitempty"`
}

// StructuralSignals counts the structural elements of a cleaned document.
type StructuralSignals struct {
	Tables            int  `json:"tables"`
	Forms             int  `json:"forms"`
	Lists             int  `json:"lists"`
	Headers           int  `json:"headers"`
	Links             int  `json:"links"`
	Images            int  `json:"images"`
	HasStructuredData bool `json:"hasStructuredData"`
}

type CleanedDocument struct {
	HTML        string            `json:"html"`
	MainContent string            `json:"mainContent"`
	MainSource  string            `json:"mainSource"`
	Signals     StructuralSignals `json:"signals"`
}

type PageMetadata struct {
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	SiteName string `json:"siteName,omitempty"`
	Language string `json:"language,omitempty"`
}

// ExtractionResult is everything produced for one extraction request.
type ExtractionResult struct {
	URL          string          `json:"url"`
	Title        string          `json:"title"`
	Frames       []FrameNode     `json:"frames"`
	Merged       MergedDocument  `json:"merged"`
	Cleaned      CleanedDocument `json:"cleaned"`
	Markdown     string          `json:"markdown"`
	Chunks       []string        `json:"chunks"`
	Stats        ContentStats    `json:"stats"`
	Metadata     PageMetadata    `json:"metadata"`
	UsedFallback bool            `json:"usedFallback"`
}
