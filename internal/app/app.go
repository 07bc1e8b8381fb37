// Package app wires together configuration, the API client, and the disk
// cache into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"os"

	"github.com/ptstats/ptine/internal/cache"
	"github.com/ptstats/ptine/internal/config"
	"github.com/ptstats/ptine/internal/ine"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The cache is opened lazily: commands that never touch the network do not
// pay the bbolt open cost.
type Deps struct {
	Config *config.Config
	Client *ine.Client

	cacheDB *cache.Cache
}

// New builds a Deps from resolved config. The client is constructed without
// a cache; call RequireCache (or let buildClient do it) to attach one.
func New(cfg *config.Config) *Deps {
	return &Deps{Config: cfg}
}

// RequireCache opens the cache database, creating the directory if needed.
// Subsequent calls return the already-open handle.
func (d *Deps) RequireCache() (*cache.Cache, error) {
	if d.cacheDB != nil {
		return d.cacheDB, nil
	}
	path := d.Config.CachePath()
	db, err := cache.Open(path, d.Config.MetadataTTL, d.Config.DataTTL)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", path, err)
	}
	d.cacheDB = db
	return db, nil
}

// RequireClient builds the API client, attaching the disk cache unless
// caching is disabled. Subsequent calls return the existing client.
func (d *Deps) RequireClient() (*ine.Client, error) {
	if d.Client != nil {
		return d.Client, nil
	}

	opts := ine.Options{
		BaseURL:    d.Config.BaseURL,
		RatePerSec: d.Config.Rate,
		NoCache:    d.Config.NoCache,
		Refresh:    d.Config.Refresh,
		Debug:      d.Config.Debug,
	}
	if !d.Config.NoCache {
		db, err := d.RequireCache()
		if err != nil {
			// A broken cache should not block network access.
			fmt.Fprintf(os.Stderr, "⚠  cache unavailable, continuing without: %v\n", err)
		} else {
			opts.Cache = db
		}
	}

	d.Client = ine.NewClient(d.Config.Language, d.Config.Timeout, opts)
	return d.Client, nil
}

// Close releases the cache database if it was opened.
func (d *Deps) Close() error {
	if d.cacheDB != nil {
		err := d.cacheDB.Close()
		d.cacheDB = nil
		return err
	}
	return nil
}
