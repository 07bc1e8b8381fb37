// Package cache provides a bbolt-backed disk cache for raw HTTP response
// bodies, keyed by request signature.
//
// Two independent TTL classes exist: catalogue and metadata responses expire
// after 7 days, data responses after 1 day. Expired entries are treated as
// misses and overwritten on the next fetch; Prune removes them eagerly.
//
// Buckets:
//
//	metadata — catalogue XML and indicator metadata bodies
//	data     — indicator data bodies
//	_meta    — internal: schema version, created_at
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Class selects the TTL bucket an entry belongs to.
type Class string

const (
	ClassMetadata Class = "metadata"
	ClassData     Class = "data"
)

// Default TTLs per class.
const (
	DefaultMetadataTTL = 7 * 24 * time.Hour
	DefaultDataTTL     = 24 * time.Hour
)

// Current schema version. Bump when bucket layout or entry format changes.
const schemaVersion = 1

var (
	bucketMetadata = []byte(ClassMetadata)
	bucketData     = []byte(ClassData)
	bucketInternal = []byte("_meta")
)

// AllClasses lists the user-facing cache classes for stats and clear.
var AllClasses = []Class{ClassMetadata, ClassData}

// Cache wraps a bbolt database holding cached response bodies.
type Cache struct {
	db          *bolt.DB
	metadataTTL time.Duration
	dataTTL     time.Duration
}

// Open opens (or creates) the cache database at path.
// Parent directories are created automatically. Zero TTLs take the defaults.
func Open(path string, metadataTTL, dataTTL time.Duration) (*Cache, error) {
	if metadataTTL <= 0 {
		metadataTTL = DefaultMetadataTTL
	}
	if dataTTL <= 0 {
		dataTTL = DefaultDataTTL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}

	c := &Cache{db: db, metadataTTL: metadataTTL, dataTTL: dataTTL}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the filesystem path of the open database.
func (c *Cache) Path() string {
	return c.db.Path()
}

// migrate ensures all buckets exist and schema is current.
func (c *Cache) migrate() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMetadata, bucketData, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Keys ─────────────────────────────────────────────────────────────────────

// Key builds the canonical cache key for a request: the endpoint path plus
// the query parameters sorted by name. Two requests that differ only in
// parameter order share one key.
func Key(endpoint string, params url.Values) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(params[name], ","))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return endpoint + ":" + hex.EncodeToString(sum[:8])
}

// ─── Entries ──────────────────────────────────────────────────────────────────

// entry is the on-disk envelope for one cached body.
type entry struct {
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Body      []byte    `json:"body"`
}

func (c *Cache) bucketFor(class Class) []byte {
	if class == ClassData {
		return bucketData
	}
	return bucketMetadata
}

func (c *Cache) ttlFor(class Class) time.Duration {
	if class == ClassData {
		return c.dataTTL
	}
	return c.metadataTTL
}

// Get retrieves a cached body. Expired entries count as misses.
func (c *Cache) Get(class Class, key string) ([]byte, bool) {
	var e entry
	found := false
	_ = c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucketFor(class)).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return nil // corrupt entry: treat as miss
		}
		found = true
		return nil
	})
	if !found || time.Now().After(e.ExpiresAt) {
		return nil, false
	}
	return e.Body, true
}

// Put stores a body under the class TTL. Concurrent Puts for the same key
// race harmlessly: bodies for one key are content-identical, so
// last-writer-wins is correct.
func (c *Cache) Put(class Class, key string, body []byte) error {
	now := time.Now().UTC()
	b, err := json.Marshal(entry{
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttlFor(class)),
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucketFor(class)).Put([]byte(key), b)
	})
}

// Delete removes one entry.
func (c *Cache) Delete(class Class, key string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucketFor(class)).Delete([]byte(key))
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// ClassStats holds entry counts and byte size for one cache class.
type ClassStats struct {
	Class   Class
	Count   int
	Expired int
	Bytes   int64
}

// Stats returns entry counts, expired counts and approximate sizes per class.
func (c *Cache) Stats() ([]ClassStats, error) {
	now := time.Now()
	var stats []ClassStats
	err := c.db.View(func(tx *bolt.Tx) error {
		for _, class := range AllClasses {
			b := tx.Bucket(c.bucketFor(class))
			if b == nil {
				continue
			}
			cs := ClassStats{Class: class}
			err := b.ForEach(func(k, v []byte) error {
				cs.Count++
				cs.Bytes += int64(len(k) + len(v))
				var e entry
				if json.Unmarshal(v, &e) == nil && now.After(e.ExpiresAt) {
					cs.Expired++
				}
				return nil
			})
			if err != nil {
				return err
			}
			stats = append(stats, cs)
		}
		return nil
	})
	return stats, err
}

// Clear deletes all entries in one class.
func (c *Cache) Clear(class Class) error {
	name := c.bucketFor(class)
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(name); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
		_, err := tx.CreateBucket(name)
		return err
	})
}

// ClearAll deletes all entries from every class.
func (c *Cache) ClearAll() error {
	for _, class := range AllClasses {
		if err := c.Clear(class); err != nil {
			return err
		}
	}
	return nil
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache) Prune() (int, error) {
	now := time.Now()
	pruned := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		for _, class := range AllClasses {
			b := tx.Bucket(c.bucketFor(class))
			var stale [][]byte
			err := b.ForEach(func(k, v []byte) error {
				var e entry
				if json.Unmarshal(v, &e) != nil || now.After(e.ExpiresAt) {
					key := make([]byte, len(k))
					copy(key, k)
					stale = append(stale, key)
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
				pruned++
			}
		}
		return nil
	})
	return pruned, err
}
