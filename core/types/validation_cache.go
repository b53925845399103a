package types

import (
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/crypto/blake2b"
)

// schemaCache holds compiled schemas keyed by the hash of their JSON form
type schemaCache struct {
	mu      sync.RWMutex
	entries map[string]*jsonschema.Schema
	maxSize int
}

func newSchemaCache(maxSize int) *schemaCache {
	return &schemaCache{
		entries: make(map[string]*jsonschema.Schema),
		maxSize: maxSize,
	}
}

func (c *schemaCache) get(key string) (*jsonschema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok
}

// put stores a compiled schema, clearing the cache when it is full.
func (c *schemaCache) put(key string, compiled *jsonschema.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.entries = make(map[string]*jsonschema.Schema)
	}
	c.entries[key] = compiled
}

func (c *schemaCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// hashSchema computes the BLAKE2b-256 hash of a schema's JSON encoding.
// encoding/json sorts map keys, so equal schemas hash equally.
func hashSchema(schema JSONSchema) (string, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
