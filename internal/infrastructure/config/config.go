// Package config loads framefill settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"framefill/internal/infrastructure/env"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Walker   WalkerConfig   `yaml:"walker"`
	Stats    StatsConfig    `yaml:"stats"`
	Channel  ChannelConfig  `yaml:"channel"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Browser  BrowserConfig  `yaml:"browser"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type WalkerConfig struct {
	MaxDepth     int           `yaml:"max_depth"`
	FrameTimeout time.Duration `yaml:"frame_timeout"`
	PingRetries  int           `yaml:"ping_retries"`
	PingBackoff  time.Duration `yaml:"ping_backoff"`
	MaxFanout    int           `yaml:"max_fanout"`
}

type StatsConfig struct {
	MaxChunkSize   int    `yaml:"max_chunk_size"`
	WordsPerMinute int    `yaml:"words_per_minute"`
	TokenEncoding  string `yaml:"token_encoding"`
}

type ChannelConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"-"`
	Timeout time.Duration `yaml:"timeout"`
	// MaxPageHTML caps the page HTML sent to the relevance stage.
	MaxPageHTML int `yaml:"max_page_html"`
}

type PipelineConfig struct {
	// Language is the stage 2 target language; empty means detect it.
	Language string `yaml:"language"`
}

type BrowserConfig struct {
	Headless   bool          `yaml:"headless"`
	Stealth    bool          `yaml:"stealth"`
	Timeout    time.Duration `yaml:"timeout"`
	ControlURL string        `yaml:"control_url"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Name  string `yaml:"name"`
	Debug bool   `yaml:"debug"`
}

func Default() *Config {
	return &Config{
		Walker: WalkerConfig{
			MaxDepth:     5,
			FrameTimeout: 5 * time.Second,
			PingRetries:  3,
			PingBackoff:  500 * time.Millisecond,
			MaxFanout:    16,
		},
		Stats: StatsConfig{
			MaxChunkSize:   4000,
			WordsPerMinute: 200,
			TokenEncoding:  "cl100k_base",
		},
		Channel: ChannelConfig{
			Timeout:     30 * time.Second,
			PingTimeout: time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			Timeout:     2 * time.Minute,
			MaxPageHTML: 20000,
		},
		Browser: BrowserConfig{
			Headless: true,
			Stealth:  true,
			Timeout:  10 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Name: "framefill",
		},
	}
}

// Load reads path when it is not empty, then applies environment
// overrides from e.
func Load(path string, e *env.EnvService) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if e != nil {
		cfg.applyEnv(e)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(e *env.EnvService) {
	c.LLM.APIKey = e.Get("OPENROUTER_API_KEY")
	if v := e.Get("OPENROUTER_MODEL_NAME"); v != "" {
		c.LLM.Model = v
	}
	if v := e.Get("OPENROUTER_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := e.Get("FRAMEFILL_LANGUAGE"); v != "" {
		c.Pipeline.Language = v
	}
	if v := e.Get("FRAMEFILL_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := e.Get("FRAMEFILL_BROWSER_CONTROL_URL"); v != "" {
		c.Browser.ControlURL = v
	}
	c.Browser.Headless = e.GetBool("FRAMEFILL_HEADLESS", c.Browser.Headless)
	c.Browser.Stealth = e.GetBool("FRAMEFILL_STEALTH", c.Browser.Stealth)
	c.Channel.Timeout = e.GetDuration("FRAMEFILL_CHANNEL_TIMEOUT", c.Channel.Timeout)
	c.Walker.MaxDepth = e.GetInt("FRAMEFILL_MAX_DEPTH", c.Walker.MaxDepth)
	c.Log.Debug = e.GetBool("FRAMEFILL_DEBUG", c.Log.Debug)
}

func (c *Config) Validate() error {
	if c.Walker.MaxDepth <= 0 {
		return fmt.Errorf("walker.max_depth must be > 0")
	}
	if c.Walker.FrameTimeout <= 0 {
		return fmt.Errorf("walker.frame_timeout must be > 0")
	}
	if c.Walker.PingRetries < 0 {
		return fmt.Errorf("walker.ping_retries must be >= 0")
	}
	if c.Stats.MaxChunkSize <= 0 {
		return fmt.Errorf("stats.max_chunk_size must be > 0")
	}
	if c.Stats.WordsPerMinute <= 0 {
		return fmt.Errorf("stats.words_per_minute must be > 0")
	}
	if c.Channel.Timeout <= 0 {
		return fmt.Errorf("channel.timeout must be > 0")
	}
	return nil
}

// RequireLLM reports whether the reasoning collaborator can be reached.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}
