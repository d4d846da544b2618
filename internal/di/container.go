package di

import (
	"context"
	"fmt"

	"framefill/internal/application/port/output"
	"framefill/internal/infrastructure/browser/rod"
	"framefill/internal/infrastructure/browser/static"
	"framefill/internal/infrastructure/channel"
	"framefill/internal/infrastructure/config"
	"framefill/internal/infrastructure/dom"
	"framefill/internal/infrastructure/language"
	"framefill/internal/infrastructure/llm/openrouter"
	"framefill/internal/infrastructure/logger"
	"framefill/internal/infrastructure/markdown"
	"framefill/internal/infrastructure/metadata"
	"framefill/internal/infrastructure/reasoning"
	"framefill/internal/infrastructure/tokens"
	"framefill/internal/usecase/cleaner"
	"framefill/internal/usecase/companion"
	"framefill/internal/usecase/discovery"
	"framefill/internal/usecase/extraction"
	"framefill/internal/usecase/filler"
	"framefill/internal/usecase/merger"
	"framefill/internal/usecase/pipeline"
	"framefill/internal/usecase/stats"
	"framefill/internal/usecase/walker"
)

// Page is the tab every use case works against: a live browser page or a
// static site loaded from disk.
type Page interface {
	companion.Page
	output.DocumentSource
}

type Container struct {
	Config *config.Config
	Logger output.LoggerPort

	Page    Page
	Browser *rod.BrowserAdapter
	Site    *static.Site

	Channel   *channel.Client
	Extractor *extraction.Extractor
	// Pipeline is nil when no reasoning collaborator is configured.
	Pipeline *pipeline.Session
}

type Options struct {
	// StaticDir serves pages from disk instead of launching a browser.
	StaticDir   string
	StaticIndex string
	// RequireReasoning fails construction when the LLM is not configured.
	RequireReasoning bool
	// Logger overrides the file logger.
	Logger output.LoggerPort
}

func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	if opts.RequireReasoning {
		if err := cfg.RequireLLM(); err != nil {
			return nil, err
		}
	}

	log := opts.Logger
	if log == nil {
		fileLog, err := logger.NewLoggerAdapter(cfg.Log.Name, cfg.Log.Debug)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = fileLog
	}

	c := &Container{Config: cfg, Logger: log}

	if opts.StaticDir != "" {
		site, err := static.LoadDir(opts.StaticDir, opts.StaticIndex)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Site = site
		c.Page = site
	} else {
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = cfg.Browser.Headless
		browserCfg.Stealth = cfg.Browser.Stealth
		browserCfg.Timeout = cfg.Browser.Timeout
		browserCfg.ControlURL = cfg.Browser.ControlURL
		browser, err := rod.NewBrowserAdapter(ctx, browserCfg, log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		c.Browser = browser
		c.Page = browser
	}

	parser := dom.NewParser()

	w := walker.New(walker.Config{
		MaxDepth:     cfg.Walker.MaxDepth,
		FrameTimeout: cfg.Walker.FrameTimeout,
		PingRetries:  cfg.Walker.PingRetries,
		PingBackoff:  cfg.Walker.PingBackoff,
		MaxFanout:    cfg.Walker.MaxFanout,
	}, log)
	comp := companion.New(c.Page, w, discovery.New(parser, log), filler.New(c.Page, log), log)

	bus := channel.NewBus(cfg.Channel.Timeout, log)
	channel.Serve(bus, comp)
	c.Channel = channel.NewClient(bus, channel.ClientConfig{
		PingTimeout: cfg.Channel.PingTimeout,
		Timeout:     cfg.Channel.Timeout,
	})

	counter, err := tokens.New(cfg.Stats.TokenEncoding)
	if err != nil {
		log.Warn("Token encoding unavailable, estimating", "encoding", cfg.Stats.TokenEncoding, "error", err)
	}
	detector := language.New()

	c.Extractor = extraction.New(extraction.Deps{
		Channel:  c.Channel,
		Fallback: c.Page,
		Merger:   merger.New(parser, log),
		Cleaner:  cleaner.New(parser, cleaner.DefaultConfig()),
		Stats: stats.New(stats.Config{
			MaxChunkSize:   cfg.Stats.MaxChunkSize,
			WordsPerMinute: cfg.Stats.WordsPerMinute,
		}, counter),
		Markdown: markdown.New(),
		Metadata: metadata.New(),
		Language: detector,
		Logger:   log,
	})

	if cfg.LLM.APIKey != "" {
		llmCfg := openrouter.DefaultConfig(cfg.LLM.APIKey, cfg.LLM.Model)
		llmCfg.BaseURL = cfg.LLM.BaseURL
		llmCfg.Timeout = cfg.LLM.Timeout
		llmCfg.Logger = log
		llm := openrouter.NewOpenRouterAdapter(llmCfg)

		reasoningCfg := reasoning.DefaultConfig()
		reasoningCfg.MaxPageHTML = cfg.LLM.MaxPageHTML

		c.Pipeline = pipeline.NewSession(pipeline.Config{
			Model:    cfg.LLM.Model,
			Language: cfg.Pipeline.Language,
		}, pipeline.Deps{
			Channel:   c.Channel,
			Reasoning: reasoning.New(llm, log, reasoningCfg),
			Extractor: c.Extractor,
			Language:  detector,
			Logger:    log,
		})
	}

	return c, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
