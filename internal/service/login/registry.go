package login

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// Normalize is the canonical form used as the registry key and the stats key.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks the trimmed name: 3-16 letters, digits or underscores.
func Validate(name string) bool {
	return usernamePattern.MatchString(strings.TrimSpace(name))
}

// Registry is the set of usernames currently logged in on this server.
type Registry struct {
	names map[string]struct{}
	mu    sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// TryAdd inserts the normalized name and reports false if it was already
// present. Check and insert happen under one lock.
func (r *Registry) TryAdd(name string) bool {
	key := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[key]; exists {
		return false
	}
	r.names[key] = struct{}{}
	return true
}

func (r *Registry) Remove(name string) {
	key := Normalize(name)

	r.mu.Lock()
	delete(r.names, key)
	r.mu.Unlock()
}

func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.names[Normalize(name)]
	return ok
}

// Snapshot returns the logged-in names sorted.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}
