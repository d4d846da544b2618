package stats

import (
	"strings"
	"testing"

	"framefill/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SentenceBoundaries(t *testing.T) {
	text := "Hello world. This is a test. Another one."
	chunks := Chunk(text, 25)

	require.GreaterOrEqual(t, len(chunks), 2)
	longest := 0
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if len(s) > longest {
			longest = len(s)
		}
	}
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 25+longest)
	}
	joined := strings.Join(chunks, " ")
	for _, s := range []string{"Hello world.", "This is a test.", "Another one."} {
		assert.Contains(t, joined, s)
	}
	assert.Equal(t, []string{"Hello world.", "This is a test.", "Another one."}, chunks)
}

func TestChunk_Edges(t *testing.T) {
	assert.Equal(t, []string{""}, Chunk("", 10))
	assert.Equal(t, []string{" short text "}, Chunk(" short text ", 100))

	long := strings.Repeat("a", 50) + ". b."
	assert.Equal(t, []string{strings.Repeat("a", 50) + ".", "b."}, Chunk(long, 10))

	noPunct := strings.Repeat("word ", 10)
	assert.Equal(t, []string{strings.TrimSpace(noPunct)}, Chunk(noPunct, 10))
}

func TestChunk_KeepsLeadingPunctuation(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		first string
	}{
		{"image", "![logo](x.png) Welcome to the site. " + strings.Repeat("More text here. ", 5), "![logo](x.png) Welcome to the site."},
		{"ellipsis", "...and then. " + strings.Repeat("x", 30) + ".", "...and then."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := Chunk(tc.text, 40)
			require.NotEmpty(t, chunks)
			assert.Equal(t, tc.first, chunks[0])
			assert.Equal(t, strings.Join(strings.Fields(tc.text), ""), strings.Join(strings.Fields(strings.Join(chunks, "")), ""))
		})
	}
}

func TestChunk_GroupsSentences(t *testing.T) {
	text := strings.Repeat("One two three. ", 10)
	chunks := Chunk(text, 50)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
		assert.True(t, strings.HasSuffix(c, "."))
	}
	assert.Equal(t, 10, strings.Count(strings.Join(chunks, " "), "One two three."))
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"**Hello** [link](http://x) world", 2},
		{"", 0},
		{"# Title\n\nSome _text_ here", 4},
		{"![alt text](img.png) caption", 1},
		{"```go\nfmt.Println()\n```", 1},
		{"> quoted ~~struck~~ `code` words", 4},
		{"  spaced\tout\nacross lines  ", 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CountWords(tc.in), tc.in)
	}
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, "2 minutes", ReadingTime(400, 200))
	assert.Equal(t, "1 minute", ReadingTime(150, 200))
	assert.Equal(t, "1 minute", ReadingTime(200, 200))
	assert.Equal(t, "2 minutes", ReadingTime(201, 200))
	assert.Equal(t, "0 minutes", ReadingTime(0, 200))
	assert.Equal(t, "1 minute", ReadingTime(100, 0))
}

func TestCompressionRatio(t *testing.T) {
	assert.Equal(t, "0%", CompressionRatio(0, 0))
	assert.Equal(t, "0%", CompressionRatio(0, 1234))
	assert.Equal(t, "75.0%", CompressionRatio(1000, 250))
	assert.Equal(t, "66.7%", CompressionRatio(3, 1))
	assert.Equal(t, "0.0%", CompressionRatio(10, 10))
}

type fixedCounter int

func (c fixedCounter) Count(string) int { return int(c) }

func TestEngine_Analyze(t *testing.T) {
	frames := []entity.FrameNode{
		{IndexPath: "0", Accessible: true, Content: &entity.FrameContent{HTML: strings.Repeat("f", 200)}},
		{IndexPath: "1", Error: entity.FrameErrorAccessDenied},
	}
	in := Input{
		MainPageHTML: strings.Repeat("m", 800),
		Frames:       frames,
		CleanedHTML:  strings.Repeat("c", 500),
		Markdown:     "Hello **world**. Second sentence here.",
	}

	s, chunks := New(Config{MaxChunkSize: 20}, fixedCounter(9)).Analyze(in)

	assert.Equal(t, 1000, s.OriginalSize)
	assert.Equal(t, 800, s.MainPageSize)
	assert.Equal(t, 200, s.IframeContentSize)
	assert.Equal(t, 500, s.CleanedSize)
	assert.Equal(t, "20.0%", s.CompressionRatios.MainPage)
	assert.Equal(t, "80.0%", s.CompressionRatios.IframeContent)
	assert.Equal(t, "50.0%", s.CompressionRatios.Cleaned)
	assert.Equal(t, 5, s.WordCount)
	assert.Equal(t, "1 minute", s.ReadingTime)
	assert.Equal(t, len(chunks), s.ChunkCount)
	assert.Equal(t, 2, s.ChunkCount)
	assert.Equal(t, 9, s.TokenEstimate)
}

func TestEngine_EmptyInput(t *testing.T) {
	s, chunks := New(DefaultConfig(), nil).Analyze(Input{})
	assert.Equal(t, []string{""}, chunks)
	assert.Equal(t, "0%", s.CompressionRatios.Markdown)
	assert.Equal(t, 0, s.TokenEstimate)
}
