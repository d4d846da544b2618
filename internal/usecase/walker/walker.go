package walker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

const (
	defaultMaxDepth     = 5
	defaultFrameTimeout = 5 * time.Second
	defaultPingRetries  = 3
	defaultPingBackoff  = 500 * time.Millisecond
	defaultPingTimeout  = 1 * time.Second
	defaultMaxFanout    = 16
)

type Config struct {
	// MaxDepth bounds recursion; frames deeper than this are not visited.
	MaxDepth     int
	FrameTimeout time.Duration
	PingRetries  int
	PingBackoff  time.Duration
	PingTimeout  time.Duration
	// MaxFanout bounds concurrent content extractions.
	MaxFanout int
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:     defaultMaxDepth,
		FrameTimeout: defaultFrameTimeout,
		PingRetries:  defaultPingRetries,
		PingBackoff:  defaultPingBackoff,
		PingTimeout:  defaultPingTimeout,
		MaxFanout:    defaultMaxFanout,
	}
}

// Walker discovers the frame hierarchy below a root document depth-first
// and extracts each frame concurrently.
type Walker struct {
	cfg    Config
	logger output.LoggerPort
	slots  chan struct{}
}

func New(cfg Config, logger output.LoggerPort) *Walker {
	def := DefaultConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = def.FrameTimeout
	}
	if cfg.PingRetries < 0 {
		cfg.PingRetries = def.PingRetries
	}
	if cfg.PingBackoff <= 0 {
		cfg.PingBackoff = def.PingBackoff
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.MaxFanout <= 0 {
		cfg.MaxFanout = def.MaxFanout
	}
	return &Walker{
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, cfg.MaxFanout),
	}
}

func (w *Walker) Config() Config {
	return w.cfg
}

type collector struct {
	mu     sync.Mutex
	frames []entity.FrameNode
}

func (c *collector) add(node entity.FrameNode) {
	c.mu.Lock()
	c.frames = append(c.frames, node)
	c.mu.Unlock()
}

// Walk returns every frame reachable from root, sorted by IndexPath. A
// frame that cannot be read is recorded with its error and never stops
// the walk of its siblings.
func (w *Walker) Walk(ctx context.Context, root output.FrameHandle) ([]entity.FrameNode, error) {
	children, err := w.children(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list top-level frames: %w", err)
	}

	results := &collector{}
	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		go w.visit(ctx, child, strconv.Itoa(i), 1, results, &wg)
	}
	wg.Wait()

	SortFrames(results.frames)
	w.logger.Debug("Frame walk finished", "frames", len(results.frames))
	return results.frames, nil
}

func (w *Walker) visit(ctx context.Context, h output.FrameHandle, path string, depth int, results *collector, wg *sync.WaitGroup) {
	defer wg.Done()

	node := entity.FrameNode{
		IndexPath: path,
		Depth:     depth,
		Src:       h.Src(),
		Name:      h.Name(),
	}
	log := w.logger.WithFields(map[string]any{"indexPath": path, "src": node.Src})

	if err := w.awaitReady(ctx, h); err != nil {
		node.Error = entity.FrameErrorUnavailable
		log.Warn("Frame not ready", "error", err)
		results.add(node)
		return
	}

	content, err := w.extract(ctx, h)
	switch {
	case errors.Is(err, entity.ErrAccessDenied):
		node.Error = entity.FrameErrorAccessDenied
	case errors.Is(err, entity.ErrTimeout):
		node.Error = entity.FrameErrorTimeout
	case err != nil:
		node.Error = entity.FrameErrorUnavailable
	case content == nil || content.HTML == "":
		node.Accessible = true
		node.Error = entity.FrameErrorEmpty
	default:
		node.Accessible = true
		node.Content = content
	}
	if err != nil {
		log.Warn("Frame extraction failed", "error", err)
	}
	results.add(node)

	if !node.Accessible {
		return
	}
	if depth >= w.cfg.MaxDepth {
		log.Debug("Max frame depth reached", "depth", depth)
		return
	}

	children, err := w.children(ctx, h)
	if err != nil {
		log.Warn("Listing child frames failed", "error", err)
		return
	}
	for i, child := range children {
		wg.Add(1)
		go w.visit(ctx, child, path+"."+strconv.Itoa(i), depth+1, results, wg)
	}
}

// awaitReady probes the frame, retrying PingRetries times with backoff.
func (w *Walker) awaitReady(ctx context.Context, h output.FrameHandle) error {
	var lastErr error
	for attempt := 0; attempt <= w.cfg.PingRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(w.cfg.PingBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, w.cfg.PingTimeout)
		lastErr = h.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("not ready after %d attempts: %w", w.cfg.PingRetries+1, lastErr)
}

type extractResult struct {
	content *entity.FrameContent
	err     error
}

// extract runs Content under the per-frame deadline. A handle that ignores
// its context is abandoned when the deadline passes.
func (w *Walker) extract(ctx context.Context, h output.FrameHandle) (*entity.FrameContent, error) {
	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", entity.ErrTimeout, ctx.Err())
	}
	defer func() { <-w.slots }()

	frameCtx, cancel := context.WithTimeout(ctx, w.cfg.FrameTimeout)
	defer cancel()

	done := make(chan extractResult, 1)
	go func() {
		content, err := h.Content(frameCtx)
		done <- extractResult{content: content, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && frameCtx.Err() != nil && !errors.Is(res.err, entity.ErrAccessDenied) {
			return nil, fmt.Errorf("%w: %v", entity.ErrTimeout, res.err)
		}
		return res.content, res.err
	case <-frameCtx.Done():
		return nil, fmt.Errorf("%w: frame content after %s", entity.ErrTimeout, w.cfg.FrameTimeout)
	}
}

func (w *Walker) children(ctx context.Context, h output.FrameHandle) ([]output.FrameHandle, error) {
	childCtx, cancel := context.WithTimeout(ctx, w.cfg.FrameTimeout)
	defer cancel()
	return h.Children(childCtx)
}
