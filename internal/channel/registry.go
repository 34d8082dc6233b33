package channel

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds all registered channels. It must be created via NewRegistry
// and passed explicitly to components that need it.
type Registry struct {
	mu       sync.RWMutex
	channels map[ChannelType]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: map[ChannelType]Channel{},
	}
}

// Register adds a channel to the registry.
func (r *Registry) Register(ch Channel) error {
	if ch == nil {
		return fmt.Errorf("channel is nil")
	}
	ct := normalizeChannelType(ch.Type().String())
	if ct == "" {
		return fmt.Errorf("channel type is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[ct]; exists {
		return fmt.Errorf("channel type already registered: %s", ct)
	}
	r.channels[ct] = ch
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(ch Channel) {
	if err := r.Register(ch); err != nil {
		panic(err)
	}
}

// Get returns the channel for the given type.
func (r *Registry) Get(channelType ChannelType) (Channel, bool) {
	ct := normalizeChannelType(channelType.String())
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[ct]
	return ch, ok
}

// List returns all registered channels ordered by type.
func (r *Registry) List() []Channel {
	r.mu.RLock()
	items := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		items = append(items, ch)
	}
	r.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		return items[i].Type() < items[j].Type()
	})
	return items
}

// ParseChannelType validates and normalizes a raw string into a registered
// ChannelType. Unknown types wrap ErrResolution.
func (r *Registry) ParseChannelType(raw string) (ChannelType, error) {
	ct := normalizeChannelType(raw)
	if ct == "" {
		return "", fmt.Errorf("%w: unsupported channel type: %s", ErrResolution, raw)
	}
	if _, ok := r.Get(ct); !ok {
		return "", fmt.Errorf("%w: unsupported channel type: %s", ErrResolution, raw)
	}
	return ct, nil
}

func normalizeChannelType(raw string) ChannelType {
	normalized := strings.TrimSpace(strings.ToLower(raw))
	if normalized == "" {
		return ""
	}
	return ChannelType(normalized)
}
