package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"pullconf/internal/api"
	"pullconf/internal/catalog"
)

// document is one client's catalog, serialized once per compilation so every
// request serves identical bytes and a stable ETag.
type document struct {
	body []byte
	etag string
}

// Store holds the compiled state under a readers-writer discipline: request
// handlers take shared read leases, reloads swap the whole generation under
// the exclusive lease. A failed compilation never reaches the store, so
// readers always observe a complete, consistent generation.
type Store struct {
	mu        sync.RWMutex
	state     *catalog.State
	documents map[api.Hostname]document
	sources   map[api.Hostname]map[api.SafePath]bool
}

func NewStore() *Store {
	return &Store{
		documents: map[api.Hostname]document{},
		sources:   map[api.Hostname]map[api.SafePath]bool{},
	}
}

// Swap serializes the new generation and replaces the current one. The
// serialization happens before the lock is taken, handlers are only blocked
// for the pointer swap.
func (s *Store) Swap(state *catalog.State) error {
	documents := make(map[api.Hostname]document, len(state.Clients))
	sources := make(map[api.Hostname]map[api.SafePath]bool, len(state.Clients))

	for name, compiled := range state.Clients {
		body, err := json.Marshal(compiled)
		if err != nil {
			return fmt.Errorf("serializing catalog of client %s: %w", name, err)
		}
		documents[name] = document{body: body, etag: checksum(body)}

		claimed := map[api.SafePath]bool{}
		for _, resource := range compiled.Data {
			if resource.File != nil && resource.File.Parameters.Source != nil {
				claimed[*resource.File.Parameters.Source] = true
			}
		}
		sources[name] = claimed
	}

	s.mu.Lock()
	s.state = state
	s.documents = documents
	s.sources = sources
	s.mu.Unlock()
	return nil
}

// Authenticate resolves a hashed API key to the client it belongs to.
func (s *Store) Authenticate(key api.APIKey) (api.Hostname, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return "", false
	}
	name, ok := s.state.APIKeys[key]
	return name, ok
}

// Document returns the serialized catalog and its ETag for a client.
func (s *Store) Document(name api.Hostname) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[name]
	return doc.body, doc.etag, ok
}

// HasSource reports whether some file resource in the client's catalog
// claims the given asset path as its source.
func (s *Store) HasSource(name api.Hostname, source api.SafePath) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sources[name][source]
}

// Clients returns the number of clients in the current generation.
func (s *Store) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// checksum is the ETag of a response body: the hex-encoded SHA-256 digest.
func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
