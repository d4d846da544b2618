// Package channel correlates asynchronous requests and responses by
// message id, with a deadline on every call.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"github.com/google/uuid"
)

// Handler answers one message type. The returned value is sent back as
// the response data.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Bus is an in-process transport: requests are dispatched to registered
// handlers on their own goroutine and answered through Deliver.
type Bus struct {
	timeout time.Duration
	logger  output.LoggerPort

	mu       sync.Mutex
	handlers map[string]Handler
	pending  map[string]chan Response
}

func NewBus(timeout time.Duration, logger output.LoggerPort) *Bus {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Bus{
		timeout:  timeout,
		logger:   logger,
		handlers: make(map[string]Handler),
		pending:  make(map[string]chan Response),
	}
}

func (b *Bus) Handle(msgType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[msgType] = h
}

// Request sends a message and decodes the response data into out. A zero
// timeout uses the bus default.
func (b *Bus) Request(ctx context.Context, msgType string, payload any, out any, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = b.timeout
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	req := Request{ID: uuid.New().String(), Type: msgType, Payload: raw}

	b.mu.Lock()
	handler, ok := b.handlers[msgType]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no handler for %s", msgType)
	}
	responses := make(chan Response, 1)
	b.pending[req.ID] = responses
	b.mu.Unlock()
	defer b.cleanup(req.ID)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go b.dispatch(callCtx, handler, req)

	select {
	case resp := <-responses:
		if !resp.Success {
			return fmt.Errorf("%s: %s", msgType, resp.Error)
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", msgType, err)
		}
		return nil
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			b.logger.Warn("Channel request timed out", "type", msgType, "id", req.ID, "timeout", timeout)
			return fmt.Errorf("%s after %s: %w", msgType, timeout, entity.ErrTimeout)
		}
		return callCtx.Err()
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, req Request) {
	resp := Response{ID: req.ID}
	data, err := h(ctx, req.Payload)
	if err != nil {
		resp.Error = err.Error()
	} else if resp.Data, err = json.Marshal(data); err != nil {
		resp.Error = fmt.Sprintf("encode response: %v", err)
	} else {
		resp.Success = true
	}
	b.Deliver(resp)
}

// Deliver routes a response to the waiting caller. Responses that arrive
// after their caller gave up are dropped.
func (b *Bus) Deliver(resp Response) {
	b.mu.Lock()
	defer b.mu.Unlock()

	responses, ok := b.pending[resp.ID]
	if !ok {
		b.logger.Debug("Dropping late response", "id", resp.ID)
		return
	}
	select {
	case responses <- resp:
	default:
	}
}

func (b *Bus) cleanup(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
}

// Pending reports how many requests are waiting for a response.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
