package valuation

import "sync/atomic"

// Store holds the live catalog. Readers always see a complete catalog:
// a refresh builds a new one and swaps the pointer.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Current returns the live catalog, or nil before the first successful refresh
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap installs c and returns the catalog it replaced
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.current.Swap(c)
}
