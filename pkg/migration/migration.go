// Package migration runs registered schema migrations in batches and
// records them in the wellness_migrations table.
//
//	func init() {
//	    migration.Register("20260101000100_create_catalog_tables", migration.Define(
//	        func(db *gorm.DB) error { return db.AutoMigrate(&models.Category{}) },
//	        func(db *gorm.DB) error { return db.Migrator().DropTable(&models.Category{}) },
//	    ))
//	}
package migration

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

// Migration is implemented by every migration.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type funcMigration struct {
	up, down func(db *gorm.DB) error
}

func (f funcMigration) Up(db *gorm.DB) error   { return f.up(db) }
func (f funcMigration) Down(db *gorm.DB) error { return f.down(db) }

// Define builds a Migration from two functions.
func Define(up, down func(db *gorm.DB) error) Migration {
	return funcMigration{up: up, down: down}
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "wellness_migrations" }

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration. Names are timestamp-prefixed and run in
// lexical order.
func Register(name string, m Migration) {
	registry = append(registry, registered{name: name, m: m})
	sort.SliceStable(registry, func(i, j int) bool { return registry[i].name < registry[j].name })
}

// Runner executes and tracks migrations.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner. Progress lines go to out (io.Discard in tests).
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

func (r *Runner) ran() (map[string]migrationRecord, error) {
	var recs []migrationRecord
	if err := r.db.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]migrationRecord, len(recs))
	for _, rec := range recs {
		out[rec.Name] = rec
	}
	return out, nil
}

// Run applies every pending migration as one batch. It returns the
// number applied.
func (r *Runner) Run() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return 0, fmt.Errorf("migration: fetch ran: %w", err)
	}

	batch := r.maxBatch() + 1
	n := 0
	for _, reg := range registry {
		if _, ok := done[reg.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "Migrating: %s\n", reg.name)
		if err := reg.m.Up(r.db); err != nil {
			return n, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error; err != nil {
			return n, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		n++
	}
	if n == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}
	logger.Info("migration: done", "ran", n, "batch", batch)
	return n, nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}
	last := r.maxBatch()
	if last == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var recs []migrationRecord
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&recs).Error; err != nil {
		return 0, err
	}
	byName := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		byName[reg.name] = reg.m
	}

	for i, rec := range recs {
		m, ok := byName[rec.Name]
		if !ok {
			return i, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		fmt.Fprintf(r.out, "Rolling back: %s\n", rec.Name)
		if err := m.Down(r.db); err != nil {
			return i, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return i, err
		}
	}
	logger.Info("migration: rolled back", "batch", last, "count", len(recs))
	return len(recs), nil
}

// StatusRow is one line of migrate:status.
type StatusRow struct {
	Name  string
	Ran   bool
	Batch int
}

// Status reports every registered migration.
func (r *Runner) Status() ([]StatusRow, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	rows := make([]StatusRow, 0, len(registry))
	for _, reg := range registry {
		rec, ok := done[reg.name]
		rows = append(rows, StatusRow{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return rows, nil
}

func (r *Runner) maxBatch() int {
	var res struct{ Max int }
	r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&res)
	return res.Max
}
