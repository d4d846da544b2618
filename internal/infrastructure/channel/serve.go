package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
)

// Serve registers page as the answering side of every channel message.
func Serve(bus *Bus, page output.PageChannel) {
	bus.Handle(TypePing, func(ctx context.Context, _ json.RawMessage) (any, error) {
		if err := page.Ping(ctx); err != nil {
			return ack{Success: false}, nil
		}
		return ack{Success: true}, nil
	})
	bus.Handle(TypeExtract, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return page.ExtractContentWithIframes(ctx)
	})
	bus.Handle(TypeDetectForms, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return page.DetectForms(ctx)
	})
	bus.Handle(TypeFillForms, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req entity.FillRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decode fill request: %w", err)
		}
		return page.FillForms(ctx, req)
	})
}
