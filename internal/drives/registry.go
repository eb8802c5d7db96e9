package drives

import (
	"path/filepath"
	"slices"
)

// Registry maps a device key to its mount path, nil while the device is attached but not
// mounted. It has a single owner and is not safe for concurrent use.
type Registry struct {
	drives map[string]*string
}

func NewRegistry() *Registry {
	return &Registry{drives: make(map[string]*string)}
}

// Attach inserts key with no mount path. An existing entry is left untouched.
func (r *Registry) Attach(key string) bool {
	if _, ok := r.drives[key]; ok {
		return false
	}
	r.drives[key] = nil
	return true
}

// Detach removes key whatever its mount state.
func (r *Registry) Detach(key string) bool {
	if _, ok := r.drives[key]; !ok {
		return false
	}
	delete(r.drives, key)
	return true
}

func (r *Registry) Has(key string) bool {
	_, ok := r.drives[key]
	return ok
}

// MountPath returns the mount path of key and whether it is mounted.
func (r *Registry) MountPath(key string) (string, bool) {
	p := r.drives[key]
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetMount records path for an attached key. It returns false if key is unknown.
func (r *Registry) SetMount(key, path string) bool {
	if _, ok := r.drives[key]; !ok {
		return false
	}
	r.drives[key] = &path
	return true
}

// Unmount clears every mount path whose leaf is leaf and returns the affected keys, sorted.
func (r *Registry) Unmount(leaf string) []string {
	var keys []string
	for key, p := range r.drives {
		if p != nil && filepath.Base(*p) == leaf {
			r.drives[key] = nil
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func (r *Registry) Len() int { return len(r.drives) }

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.drives))
	for key := range r.drives {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a copy safe to hand to other goroutines. Unmounted keys map to nil, which
// renders as JSON null.
func (r *Registry) Snapshot() map[string]*string {
	out := make(map[string]*string, len(r.drives))
	for key, p := range r.drives {
		if p == nil {
			out[key] = nil
			continue
		}
		v := *p
		out[key] = &v
	}
	return out
}
