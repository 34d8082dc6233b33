package channel

import (
	"context"
	"time"
)

// CardToCarouselName is the marker of CardToCarousel.
const CardToCarouselName = "card-to-carousel"

// CardToCarousel rewrites a single card payload into a one-item carousel so
// later renderers only deal with carousels. It produces no fragments.
type CardToCarousel[F, C any] struct{}

func (CardToCarousel[F, C]) Name() string {
	return CardToCarouselName
}

func (CardToCarousel[F, C]) Handles(rc *RenderContext[F, C]) bool {
	return rc.Payload.Type == PayloadCard
}

func (CardToCarousel[F, C]) Render(_ context.Context, rc *RenderContext[F, C]) error {
	p := &rc.Payload
	p.Items = []Card{{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Image:    p.Image,
		Actions:  p.Actions,
	}}
	p.Type = PayloadCarousel
	p.Title, p.Subtitle, p.Image, p.Actions = "", "", "", nil
	return nil
}

// DefaultTypingDelay applies when neither the payload nor the channel sets one.
const DefaultTypingDelay = time.Second

// TypingDelay returns how long a typing indicator lasts for p.
func TypingDelay(p Payload, fallback time.Duration) time.Duration {
	if p.Delay > 0 {
		return time.Duration(p.Delay) * time.Millisecond
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultTypingDelay
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
