package storage

import (
	"encoding/json"
	"fmt"
	"os"
)

// MappingStore is the durable key-to-entity-id table. Keys are canonical
// URLs, redirect URLs, and external identifiers. Every Put rewrites the
// active shard immediately, so a crash loses at most the in-flight article.
type MappingStore struct {
	shards  *shardFamily
	entries map[string]string
}

// OpenMapping loads the mapping state from the active shard, or starts
// empty when no shard exists yet.
func OpenMapping(dir, base string, maxBytes int64) (*MappingStore, error) {
	store := &MappingStore{
		shards:  newShardFamily(dir, base, maxBytes),
		entries: map[string]string{},
	}

	path := store.shards.active()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping shard %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &store.entries); err != nil {
		return nil, fmt.Errorf("parse mapping shard %s: %w", path, err)
	}
	return store, nil
}

// Get returns the entity id stored under key, if any.
func (m *MappingStore) Get(key string) (string, bool) {
	id, ok := m.entries[key]
	return id, ok
}

// Put records one key and flushes immediately.
func (m *MappingStore) Put(key, entityID string) error {
	return m.PutAll([]string{key}, entityID)
}

// PutAll records every key against the same entity id with a single flush.
func (m *MappingStore) PutAll(keys []string, entityID string) error {
	for _, key := range keys {
		if key == "" {
			continue
		}
		m.entries[key] = entityID
	}
	return m.flush()
}

// Len reports the number of stored keys.
func (m *MappingStore) Len() int {
	return len(m.entries)
}

func (m *MappingStore) flush() error {
	data, err := json.MarshalIndent(m.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	return m.shards.write(data)
}
