// Package seeders fills a store with demo data.
//
// A seeder registers itself from init():
//
//	func init() {
//	    seeders.Register("catalog", seedCatalog)
//	}
//
// and runs with `storefront db:seed`. Seeders must be safe to run twice.
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hayatshop/storefront/app/repositories"
)

type SeederFunc func(ctx context.Context, store repositories.Store) error

type entry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []entry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, entry{name: name, fn: fn})
}

// Names lists the registered seeders.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.name)
	}
	return out
}

// RunAll runs every seeder, reporting progress to w, and stops at the first
// failure.
func RunAll(ctx context.Context, store repositories.Store, w io.Writer) error {
	mu.Lock()
	current := append([]entry(nil), entries...)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(w, "  (no seeders registered)")
		return nil
	}
	for _, e := range current {
		fmt.Fprintf(w, "  • seeding %s … ", e.name)
		if err := e.fn(ctx, store); err != nil {
			fmt.Fprintln(w, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(w, "done")
	}
	return nil
}
