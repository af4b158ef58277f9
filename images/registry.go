package images

import "sync/atomic"

// AvailabilityRegistry tracks providers sticky-disabled for the remainder of
// the process after a quota or auth failure. Safe for concurrent use; a race
// costs at most one extra call to a disabled provider.
type AvailabilityRegistry struct {
	flags map[string]*atomic.Bool
}

// NewAvailabilityRegistry creates a registry covering the given providers.
func NewAvailabilityRegistry(providers []Provider) *AvailabilityRegistry {
	flags := make(map[string]*atomic.Bool, len(providers))
	for _, p := range providers {
		flags[p.Name] = &atomic.Bool{}
	}
	return &AvailabilityRegistry{flags: flags}
}

// Disable marks a provider unusable until the process exits.
func (r *AvailabilityRegistry) Disable(name string) {
	if flag, ok := r.flags[name]; ok {
		flag.Store(true)
	}
}

// Disabled reports whether the provider has been sticky-disabled.
func (r *AvailabilityRegistry) Disabled(name string) bool {
	if flag, ok := r.flags[name]; ok {
		return flag.Load()
	}
	return false
}
