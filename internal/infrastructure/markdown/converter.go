package markdown

import (
	"fmt"
	"strings"

	"framefill/internal/application/port/output"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var _ output.MarkdownPort = (*Converter)(nil)

// Converter renders cleaned HTML as markdown. Input is sanitized first so
// leftover scripts or event handlers never reach the output.
type Converter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

func New() *Converter {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").Globally()
	policy.AllowElements("section", "main", "article", "header", "footer", "nav", "aside")

	return &Converter{
		policy: policy,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (c *Converter) Convert(html, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	safe := c.policy.Sanitize(html)

	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := c.conv.ConvertString(safe, opts...)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
