package channel

import (
	"context"
	"fmt"
)

// Renderer converts (part of) the canonical payload into wire fragments.
// Renderers hold configuration only.
type Renderer[F, C any] interface {
	Name() string
	Handles(rc *RenderContext[F, C]) bool
	Render(ctx context.Context, rc *RenderContext[F, C]) error
}

// Sender performs platform calls from the rendered context. Senders only read
// the context.
type Sender[F, C any] interface {
	Name() string
	Handles(rc *RenderContext[F, C]) bool
	Send(ctx context.Context, rc *RenderContext[F, C]) error
}

// render runs every renderer that handles rc, in order. Several renderers may
// fire for one payload. The first error aborts the chain.
func render[F, C any](ctx context.Context, renderers []Renderer[F, C], rc *RenderContext[F, C]) error {
	for _, r := range renderers {
		if !r.Handles(rc) {
			continue
		}
		if err := r.Render(ctx, rc); err != nil {
			return fmt.Errorf("renderer %s: %w", r.Name(), err)
		}
		rc.Mark(r.Name())
	}
	return nil
}

// deliver runs every sender that handles rc, sequentially. The first failure
// stops the chain and is reported as ErrDelivery.
func deliver[F, C any](ctx context.Context, senders []Sender[F, C], rc *RenderContext[F, C]) error {
	for _, s := range senders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Handles(rc) {
			continue
		}
		if err := s.Send(ctx, rc); err != nil {
			return fmt.Errorf("%w: sender %s: %w", ErrDelivery, s.Name(), err)
		}
	}
	return nil
}
