package commands

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var errNoName = errors.New("command has no name")

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	primary []string // sorted
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds c under its name and aliases. Nothing is added if any of
// those keys is taken.
func (r *Registry) Register(c Command) error {
	name := c.Name()
	if name == "" {
		return errNoName
	}
	keys := append([]string{name}, c.Aliases()...)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, key := range keys {
		if _, taken := r.byName[key]; taken || slices.Contains(keys[:i], key) {
			return fmt.Errorf("command %q: %q is already registered", name, key)
		}
	}
	for _, key := range keys {
		r.byName[key] = c
	}
	i, _ := slices.BinarySearch(r.primary, name)
	r.primary = slices.Insert(r.primary, i, name)
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// All returns each command once, sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.primary))
	for _, name := range r.primary {
		out = append(out, r.byName[name])
	}
	return out
}

// DefaultRegistry holds the commands registered by this package's init functions.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
