// Package seeders fills a fresh database with the admin account, a demo
// catalog and upcoming workshops. `wellness seed` runs them.
package seeders

import (
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
)

// SeederFunc inserts rows. It must be safe to run twice.
type SeederFunc func(db *gorm.DB) error

type seeder struct {
	name string
	run  SeederFunc
}

// registry is filled from init functions, so file order decides run order.
var registry []seeder

func Register(name string, fn SeederFunc) {
	registry = append(registry, seeder{name: name, run: fn})
}

// RunAll runs every seeder in its own transaction and stops at the first
// failure.
func RunAll(db *gorm.DB, out io.Writer) error {
	if len(registry) == 0 {
		fmt.Fprintln(out, "No seeders registered.")
		return nil
	}
	for _, s := range registry {
		start := time.Now()
		if err := db.Transaction(func(tx *gorm.DB) error { return s.run(tx) }); err != nil {
			fmt.Fprintf(out, "Seeding %s: failed\n", s.name)
			return fmt.Errorf("seeder %s: %w", s.name, err)
		}
		fmt.Fprintf(out, "Seeded %s (%s)\n", s.name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
