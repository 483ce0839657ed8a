package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvander/strum/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketLibrary   = []byte("library")
	bucketFavorites = []byte("favorites")
	bucketSession   = []byte("session")
)

// SessionStore implements domain.Store using BoltDB. It keeps a snapshot of
// the fetched library for instant cold-start rendering plus the durable
// session record.
type SessionStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewSessionStore opens the store under baseCacheDir, segregated per server
// URL. An empty baseCacheDir yields a memory-only store (used in tests).
func NewSessionStore(baseCacheDir, serverURL string) (*SessionStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &SessionStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "strum.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLibrary, bucketFavorites, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SessionStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *SessionStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *SessionStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// === Library snapshot ===

func (s *SessionStore) GetSongs() ([]domain.Song, bool) {
	var songs []domain.Song
	ok := s.get(bucketLibrary, "songs", &songs)
	return songs, ok
}

func (s *SessionStore) SaveSongs(songs []domain.Song) error {
	return s.set(bucketLibrary, "songs", songs)
}

func (s *SessionStore) GetCollections() ([]domain.Collection, bool) {
	var collections []domain.Collection
	ok := s.get(bucketLibrary, "collections", &collections)
	return collections, ok
}

func (s *SessionStore) SaveCollections(collections []domain.Collection) error {
	return s.set(bucketLibrary, "collections", collections)
}

// === Favorites ===

func (s *SessionStore) GetFavorites() ([]string, bool) {
	var ids []string
	ok := s.get(bucketFavorites, "ids", &ids)
	return ids, ok
}

func (s *SessionStore) SaveFavorites(ids []string) error {
	return s.set(bucketFavorites, "ids", ids)
}

// === Session record ===

func (s *SessionStore) GetSession() (domain.SessionState, bool) {
	var state domain.SessionState
	ok := s.get(bucketSession, "state", &state)
	return state, ok
}

func (s *SessionStore) SaveSession(state domain.SessionState) error {
	return s.set(bucketSession, "state", state)
}

// InvalidateAll wipes every bucket. Used on logout.
func (s *SessionStore) InvalidateAll() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLibrary, bucketFavorites, bucketSession} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
