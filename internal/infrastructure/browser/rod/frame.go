package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"github.com/go-rod/rod"
)

const (
	readyStateJS = `() => document.readyState`
	contentJS    = `() => JSON.stringify({
		html: document.documentElement ? document.documentElement.outerHTML : "",
		title: document.title || "",
		url: location.href
	})`
	frameSelector = "iframe, frame"
)

// frameHandle is a browsing context reached through rod. Child handles
// resolve their frame lazily so one unreadable frame never blocks its
// siblings.
type frameHandle struct {
	timeout time.Duration
	src     string
	name    string

	mu   sync.Mutex
	page *rod.Page
	el   *rod.Element
}

func (h *frameHandle) Src() string  { return h.src }
func (h *frameHandle) Name() string { return h.name }

func (h *frameHandle) resolve(ctx context.Context) (*rod.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.page != nil {
		return h.page.Context(ctx), nil
	}
	page, err := h.el.Context(ctx).Frame()
	if err != nil {
		return nil, classify(err)
	}
	h.page = page
	return page.Context(ctx), nil
}

func (h *frameHandle) Ping(ctx context.Context) error {
	page, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	res, err := page.Eval(readyStateJS)
	if err != nil {
		return classify(err)
	}
	if state := res.Value.Str(); state == "loading" {
		return fmt.Errorf("frame %q: document still loading", h.src)
	}
	return nil
}

func (h *frameHandle) Content(ctx context.Context) (*entity.FrameContent, error) {
	page, err := h.resolve(ctx)
	if err != nil {
		return nil, err
	}
	res, err := page.Eval(contentJS)
	if err != nil {
		return nil, classify(err)
	}

	var content entity.FrameContent
	if err := json.Unmarshal([]byte(res.Value.Str()), &content); err != nil {
		return nil, fmt.Errorf("decode frame content: %w", err)
	}
	if u, err := url.Parse(content.URL); err == nil {
		content.Domain = u.Hostname()
	}
	return &content, nil
}

func (h *frameHandle) Children(ctx context.Context) ([]output.FrameHandle, error) {
	page, err := h.resolve(ctx)
	if err != nil {
		return nil, err
	}
	elements, err := page.Elements(frameSelector)
	if err != nil {
		return nil, classify(err)
	}

	children := make([]output.FrameHandle, 0, len(elements))
	for _, el := range elements {
		children = append(children, &frameHandle{
			timeout: h.timeout,
			src:     attr(el, "src"),
			name:    attr(el, "name"),
			el:      el,
		})
	}
	return children, nil
}

// frameAt follows an index path from page through nested frame tags.
func frameAt(ctx context.Context, page *rod.Page, iframePath string) (*rod.Page, error) {
	if iframePath == "" {
		return page, nil
	}
	for _, part := range strings.Split(iframePath, ".") {
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid iframe path %q", iframePath)
		}
		elements, err := page.Context(ctx).Elements(frameSelector)
		if err != nil {
			return nil, classify(err)
		}
		if idx < 0 || idx >= len(elements) {
			return nil, fmt.Errorf("iframe path %q: %w", iframePath, entity.ErrFieldNotFound)
		}
		page, err = elements[idx].Context(ctx).Frame()
		if err != nil {
			return nil, classify(err)
		}
	}
	return page, nil
}

var deniedMarkers = []string{
	"cross-origin",
	"securityerror",
	"blocked a frame",
	"cannot find context",
	"no frame",
}

// classify maps same-origin policy failures onto entity.ErrAccessDenied.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range deniedMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", entity.ErrAccessDenied, err)
		}
	}
	return err
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}
