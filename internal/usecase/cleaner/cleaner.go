package cleaner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

type Config struct {
	// ElementsToRemove are dropped with their subtree.
	ElementsToRemove []string
	// NoiseSelectors match presentational regions such as ads and cookie banners.
	NoiseSelectors []string
	// AttrsToRemove are stripped from every element, in addition to on* and data-*.
	AttrsToRemove []string
	// MainSelectors are tried in order when picking the main content region.
	MainSelectors []string
	// MinMainText is the visible text length a main candidate must exceed.
	MinMainText int
	// MaxOutputSize truncates the cleaned HTML, 0 disables.
	MaxOutputSize int
}

func DefaultConfig() Config {
	return Config{
		ElementsToRemove: []string{"script", "style", "noscript", "template", `link[rel="stylesheet"]`},
		NoiseSelectors: []string{
			".advertisement", ".ads", ".ad-banner",
			".cookie-notice", ".cookie-banner", ".cookie-consent",
			".popup", ".modal",
			".navigation", ".nav-menu", ".footer-nav",
		},
		AttrsToRemove: []string{"style"},
		MainSelectors: []string{
			"main", `[role="main"]`, ".main-content", "#main",
			".content", "article", ".post-content", ".entry-content",
		},
		MinMainText: 100,
	}
}

const (
	SourceSelectorPrefix = "selector:"
	SourceBody           = "body"
	SourceDocument       = "document"
)

type Cleaner struct {
	parser output.DocumentParser
	cfg    Config
}

func New(parser output.DocumentParser, cfg Config) *Cleaner {
	if cfg.MinMainText <= 0 {
		cfg.MinMainText = DefaultConfig().MinMainText
	}
	return &Cleaner{parser: parser, cfg: cfg}
}

// Clean removes noise, strips behavioural and presentational attributes,
// picks the main content region and counts structural elements.
func (c *Cleaner) Clean(raw string) (*entity.CleanedDocument, error) {
	doc, err := c.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	c.removeNoise(doc)
	c.sanitizeAttributes(doc)

	cleaned, err := doc.Render()
	if err != nil {
		return nil, fmt.Errorf("render cleaned document: %w", err)
	}
	main, source, err := c.mainContent(doc)
	if err != nil {
		return nil, err
	}

	return &entity.CleanedDocument{
		HTML:        truncate(cleaned, c.cfg.MaxOutputSize),
		MainContent: main,
		MainSource:  source,
		Signals:     Signals(doc),
	}, nil
}

func (c *Cleaner) removeNoise(doc output.DocumentTree) {
	for _, group := range [][]string{c.cfg.ElementsToRemove, c.cfg.NoiseSelectors} {
		if len(group) == 0 {
			continue
		}
		for _, n := range doc.Query(strings.Join(group, ", ")) {
			doc.Remove(n)
		}
	}
}

func (c *Cleaner) sanitizeAttributes(doc output.DocumentTree) {
	for _, n := range doc.Query("*") {
		var drop []string
		for _, attr := range n.Attr {
			if c.shouldRemoveAttr(attr.Key) {
				drop = append(drop, attr.Key)
			}
		}
		for _, key := range drop {
			doc.RemoveAttribute(n, key)
		}
	}
}

func (c *Cleaner) shouldRemoveAttr(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "on") || strings.HasPrefix(key, "data-") {
		return true
	}
	for _, r := range c.cfg.AttrsToRemove {
		if key == r {
			return true
		}
	}
	return false
}

func (c *Cleaner) mainContent(doc output.DocumentTree) (string, string, error) {
	for _, selector := range c.cfg.MainSelectors {
		for _, n := range doc.Query(selector) {
			if len(strings.TrimSpace(doc.Text(n))) <= c.cfg.MinMainText {
				continue
			}
			out, err := doc.HTML(n)
			if err != nil {
				return "", "", fmt.Errorf("render %s: %w", selector, err)
			}
			return out, SourceSelectorPrefix + selector, nil
		}
	}
	if bodies := doc.Query("body"); len(bodies) > 0 {
		out, err := doc.HTML(bodies[0])
		if err != nil {
			return "", "", fmt.Errorf("render body: %w", err)
		}
		return out, SourceBody, nil
	}
	out, err := doc.Render()
	if err != nil {
		return "", "", fmt.Errorf("render document: %w", err)
	}
	return out, SourceDocument, nil
}

// Signals counts tables, forms, lists, headers, links and images.
func Signals(doc output.DocumentTree) entity.StructuralSignals {
	s := entity.StructuralSignals{
		Tables:  len(doc.Query("table")),
		Forms:   len(doc.Query("form")),
		Lists:   len(doc.Query("ul, ol")),
		Headers: len(doc.Query("h1, h2, h3, h4, h5, h6")),
		Links:   len(doc.Query("a[href]")),
		Images:  len(doc.Query("img")),
	}
	s.HasStructuredData = s.Tables > 0 || s.Forms > 0 || s.Lists > 2
	return s
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n<!-- truncated -->"
}
