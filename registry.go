/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package softdelete

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a thread-safe set of collections keyed by name.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		collections: make(map[string]*Collection),
	}
}

// Register adds c under its collection name.
func (r *Registry) Register(c *Collection) error {
	return r.RegisterAs(c.Name(), c)
}

// RegisterAs adds c under key.
func (r *Registry) RegisterAs(key string, c *Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[key]; exists {
		return fmt.Errorf("collection with key %q already registered", key)
	}
	r.collections[key] = c
	return nil
}

// Get retrieves a collection by key
func (r *Registry) Get(key string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.collections[key]
	if !exists {
		return nil, fmt.Errorf("collection with key %q not found", key)
	}
	return c, nil
}

// Remove deletes a collection by key
func (r *Registry) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[key]; !exists {
		return fmt.Errorf("collection with key %q not found", key)
	}
	delete(r.collections, key)
	return nil
}

// List returns all registered keys in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.collections))
	for k := range r.collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
