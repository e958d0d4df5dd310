/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"sync"
)

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a collection with a DynamoDB index map (PK, SK, etc.).
func RegisterIndexMap(collection string, idxMap map[string]string) {
	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[collection] = cp
}

// GetIndexMap retrieves the index map for a collection, if any.
func GetIndexMap(collection string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[collection]
	return m, ok
}

// IndexMapOrDefault returns the registered index map, or one keying both PK
// and SK on the document identifier.
func IndexMapOrDefault(collection string) map[string]string {
	if m, ok := GetIndexMap(collection); ok {
		return m
	}
	return map[string]string{
		"PK": collection + "#{_id}",
		"SK": collection + "#{_id}",
	}
}

// UnregisterIndexMap removes a collection's index map.
func UnregisterIndexMap(collection string) {
	mu.Lock()
	defer mu.Unlock()
	delete(indexMapRegistry, collection)
}

// Collections lists collections with a registered index map.
func Collections() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(indexMapRegistry))
	for k := range indexMapRegistry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
