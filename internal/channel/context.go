package channel

// RenderContext is the per-send working state threaded through the renderer
// and sender chains. F is the channel's wire fragment type and C its client
// bundle. A RenderContext is built for exactly one send and never shared.
type RenderContext[F, C any] struct {
	TenantID       string
	ConversationID string
	// Thread is the platform channel the conversation lives in.
	Thread  string
	UserRef string
	// Payload is a deep copy of the caller's payload; renderers may rewrite it.
	Payload Payload
	// Fragments accumulates wire fragments in render order. Append only.
	Fragments []F
	// Markers lists the renderers that fired, in firing order.
	Markers []string
	Clients C
}

// AppendFragment adds wire fragments in order.
func (rc *RenderContext[F, C]) AppendFragment(fragments ...F) {
	rc.Fragments = append(rc.Fragments, fragments...)
}

// Mark records that the named renderer fired.
func (rc *RenderContext[F, C]) Mark(name string) {
	rc.Markers = append(rc.Markers, name)
}

// Marked reports whether the named renderer fired.
func (rc *RenderContext[F, C]) Marked(name string) bool {
	for _, marker := range rc.Markers {
		if marker == name {
			return true
		}
	}
	return false
}
