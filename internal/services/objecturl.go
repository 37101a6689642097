package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const objectURLPrefix = "blob:meme-maker/"

type objectEntry struct {
	data        []byte
	contentType string
}

// ObjectURLStore mints blob: URIs for in-memory file contents, the way a
// browser's URL.createObjectURL does for picked files.
type ObjectURLStore struct {
	mu      sync.RWMutex
	entries map[string]objectEntry
}

func NewObjectURLStore() *ObjectURLStore {
	return &ObjectURLStore{entries: make(map[string]objectEntry)}
}

// Create stores a copy of data and returns its blob: URI.
func (s *ObjectURLStore) Create(data []byte, contentType string) string {
	buf := make([]byte, len(data))
	copy(buf, data)

	uri := objectURLPrefix + uuid.NewString()
	s.mu.Lock()
	s.entries[uri] = objectEntry{data: buf, contentType: contentType}
	s.mu.Unlock()
	return uri
}

// Resolve returns the bytes behind uri.
func (s *ObjectURLStore) Resolve(uri string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[uri]
	if !ok {
		return nil, "", false
	}
	return e.data, e.contentType, true
}

// Revoke forgets uri. Revoking an unknown URI is a no-op.
func (s *ObjectURLStore) Revoke(uri string) {
	s.mu.Lock()
	delete(s.entries, uri)
	s.mu.Unlock()
}

func (s *ObjectURLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Shutdown drops every stored object.
func (s *ObjectURLStore) Shutdown() {
	s.mu.Lock()
	s.entries = make(map[string]objectEntry)
	s.mu.Unlock()
}

// IsObjectURL reports whether uri was minted by an ObjectURLStore.
func IsObjectURL(uri string) bool {
	return strings.HasPrefix(uri, objectURLPrefix)
}
