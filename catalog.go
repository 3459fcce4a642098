package usbtool

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ListingSource produces lsusb style text: one device per line, each
// containing "ID vvvv:pppp description".
type ListingSource interface {
	USBListing(ctx context.Context) (string, error)
}

// LsusbSource runs lsusb.
type LsusbSource struct {
	// Command defaults to "lsusb".
	Command string
	// Timeout bounds each invocation. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// USBListing implements ListingSource.
func (s LsusbSource) USBListing(ctx context.Context) (string, error) {
	name := s.Command
	if name == "" {
		name = "lsusb"
	}
	return runCommand(ctx, s.Timeout, name)
}

// Catalog maps a serialized identity ("vvvv:pppp") to the description lsusb
// prints for it. It is a snapshot of the hardware attached when it was built.
type Catalog map[string]string

// CatalogEntry is one catalog row.
type CatalogEntry struct {
	ID          string
	Description string
}

const idMarker = "ID "

// ParseCatalog parses lsusb output. Lines without an "ID " marker are skipped.
// Keys are taken verbatim: a lookup matches only the exact same string.
func ParseCatalog(listing string) Catalog {
	catalog := make(Catalog)
	for _, line := range strings.Split(listing, "\n") {
		i := strings.Index(line, idMarker)
		if i < 0 {
			continue
		}
		rest := line[i+len(idMarker):]
		id, description, _ := strings.Cut(rest, " ")
		if id == "" {
			continue
		}
		catalog[id] = description
	}
	return catalog
}

// BuildCatalog fetches a fresh listing from src and parses it.
func BuildCatalog(ctx context.Context, src ListingSource) (Catalog, error) {
	listing, err := src.USBListing(ctx)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(listing), nil
}

// Contains reports whether id is attached according to the catalog.
func (c Catalog) Contains(id string) bool {
	_, ok := c[id]
	return ok
}

// Entries returns the catalog sorted by ID.
func (c Catalog) Entries() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(c))
	for id, description := range c {
		entries = append(entries, CatalogEntry{ID: id, Description: description})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
