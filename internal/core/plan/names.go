package plan

import (
	"strings"
	"sync"
)

// Deduplicator is the run-scoped used-name set. Claim is an atomic
// add-if-absent, so two concurrently completing tasks can never both keep
// the same name. Comparison is case- and whitespace-insensitive; the
// original spelling is preserved for the exclude list.
type Deduplicator struct {
	mu    sync.Mutex
	used  map[string]struct{}
	names []string
}

// NewDeduplicator seeds the set with the owner's historical recipe names.
func NewDeduplicator(seed []string) *Deduplicator {
	d := &Deduplicator{
		used:  make(map[string]struct{}, len(seed)),
		names: make([]string, 0, len(seed)),
	}
	for _, name := range seed {
		key := nameKey(name)
		if key == "" {
			continue
		}
		if _, ok := d.used[key]; ok {
			continue
		}
		d.used[key] = struct{}{}
		d.names = append(d.names, name)
	}
	return d
}

// Claim adds the name if absent and reports whether the caller now owns it.
func (d *Deduplicator) Claim(name string) bool {
	key := nameKey(name)
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.used[key]; ok {
		return false
	}
	d.used[key] = struct{}{}
	d.names = append(d.names, name)
	return true
}

// Contains reports whether the name is already used.
func (d *Deduplicator) Contains(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.used[nameKey(name)]
	return ok
}

// Snapshot returns a copy of the used names in insertion order.
func (d *Deduplicator) Snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
