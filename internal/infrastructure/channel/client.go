package channel

import (
	"context"
	"fmt"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

var _ output.PageChannel = (*Client)(nil)

type ClientConfig struct {
	// PingTimeout bounds the readiness probe; the other calls use Timeout.
	PingTimeout time.Duration
	Timeout     time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout: time.Second,
		Timeout:     30 * time.Second,
	}
}

// Client is the typed side of the bus used by the extraction and pipeline
// use cases.
type Client struct {
	bus *Bus
	cfg ClientConfig
}

func NewClient(bus *Bus, cfg ClientConfig) *Client {
	return &Client{bus: bus, cfg: cfg}
}

type ack struct {
	Success bool `json:"success"`
}

func (c *Client) Ping(ctx context.Context) error {
	var out ack
	if err := c.bus.Request(ctx, TypePing, nil, &out, c.cfg.PingTimeout); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("ping: companion not ready")
	}
	return nil
}

func (c *Client) ExtractContentWithIframes(ctx context.Context) (*entity.PageExtraction, error) {
	var out entity.PageExtraction
	if err := c.bus.Request(ctx, TypeExtract, nil, &out, c.cfg.Timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DetectForms(ctx context.Context) (*entity.DetectedForms, error) {
	var out entity.DetectedForms
	if err := c.bus.Request(ctx, TypeDetectForms, nil, &out, c.cfg.Timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FillForms(ctx context.Context, req entity.FillRequest) (*entity.FillReport, error) {
	var out entity.FillReport
	if err := c.bus.Request(ctx, TypeFillForms, req, &out, c.cfg.Timeout); err != nil {
		return nil, err
	}
	return &out, nil
}
