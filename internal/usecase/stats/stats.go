package stats

import (
	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

const (
	DefaultMaxChunkSize   = 4000
	DefaultWordsPerMinute = 200
)

type Config struct {
	MaxChunkSize   int
	WordsPerMinute int
}

func DefaultConfig() Config {
	return Config{
		MaxChunkSize:   DefaultMaxChunkSize,
		WordsPerMinute: DefaultWordsPerMinute,
	}
}

// Input holds the artifacts of one extraction, stage by stage.
type Input struct {
	MainPageHTML string
	Frames       []entity.FrameNode
	CleanedHTML  string
	Markdown     string
}

type Engine struct {
	cfg    Config
	tokens output.TokenCounterPort
}

// New builds an engine. tokens may be nil.
func New(cfg Config, tokens output.TokenCounterPort) *Engine {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = DefaultWordsPerMinute
	}
	return &Engine{cfg: cfg, tokens: tokens}
}

// Analyze chunks the markdown and reports sizes and ratios for every stage.
func (e *Engine) Analyze(in Input) (entity.ContentStats, []string) {
	iframeSize := 0
	for _, f := range in.Frames {
		iframeSize += f.ContentSize()
	}
	mainSize := len(in.MainPageHTML)
	original := mainSize + iframeSize

	chunks := Chunk(in.Markdown, e.cfg.MaxChunkSize)
	words := CountWords(in.Markdown)

	s := entity.ContentStats{
		OriginalSize:      original,
		MainPageSize:      mainSize,
		IframeContentSize: iframeSize,
		CleanedSize:       len(in.CleanedHTML),
		MarkdownSize:      len(in.Markdown),
		CompressionRatios: entity.CompressionRatios{
			MainPage:      CompressionRatio(original, mainSize),
			IframeContent: CompressionRatio(original, iframeSize),
			Cleaned:       CompressionRatio(original, len(in.CleanedHTML)),
			Markdown:      CompressionRatio(original, len(in.Markdown)),
		},
		WordCount:   words,
		ReadingTime: ReadingTime(words, e.cfg.WordsPerMinute),
		ChunkCount:  len(chunks),
	}
	if e.tokens != nil {
		s.TokenEstimate = e.tokens.Count(in.Markdown)
	}
	return s, chunks
}
