package tokens

import (
	"framefill/internal/application/port/output"

	"github.com/pkoukk/tiktoken-go"
)

var _ output.TokenCounterPort = (*Counter)(nil)

const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a BPE encoding. Without one it estimates four
// bytes per token.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding. Loading may download the BPE ranks, so callers
// should treat an error as "estimate instead" rather than fatal.
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &Counter{}, err
	}
	return &Counter{enc: enc}, nil
}

// NewEstimator returns a Counter that never loads an encoding.
func NewEstimator() *Counter {
	return &Counter{}
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
