package core

import "sync"

// Registry is the process-wide mapping of channel kind and token to live
// channels. Insert and delete of whole channels are guarded here; each
// channel's own contents are guarded by its own lock.
type Registry struct {
	mu       sync.RWMutex
	channels map[ChannelKind]map[string]*Channel
}

// NewRegistry creates an empty registry with a namespace per kind.
func NewRegistry() *Registry {
	channels := make(map[ChannelKind]map[string]*Channel, len(Kinds))
	for _, kind := range Kinds {
		channels[kind] = make(map[string]*Channel)
	}
	return &Registry{channels: channels}
}

// Get returns the channel for (kind, token), or nil if absent.
func (r *Registry) Get(kind ChannelKind, token string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[kind][token]
}

// Exists reports whether a channel token is taken within its kind.
func (r *Registry) Exists(kind ChannelKind, token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[kind][token]
	return ok
}

// Insert registers a channel under its kind and token.
func (r *Registry) Insert(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Kind][ch.Token] = ch
}

// Remove deletes a channel from its kind namespace. Removing an absent
// token is a no-op.
func (r *Registry) Remove(kind ChannelKind, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels[kind], token)
}

// ForEach calls fn for every channel of the given kind. The iteration runs
// over a snapshot, so fn may call back into the registry.
func (r *Registry) ForEach(kind ChannelKind, fn func(*Channel)) {
	r.mu.RLock()
	snapshot := make([]*Channel, 0, len(r.channels[kind]))
	for _, ch := range r.channels[kind] {
		snapshot = append(snapshot, ch)
	}
	r.mu.RUnlock()

	for _, ch := range snapshot {
		fn(ch)
	}
}

// Len returns the number of live channels of the given kind.
func (r *Registry) Len(kind ChannelKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[kind])
}
