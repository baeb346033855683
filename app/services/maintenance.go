package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/schedule"
)

const (
	GuestCartTTL  = 7 * 24 * time.Hour
	ScratchMaxAge = time.Hour
)

// Maintenance holds the periodic cleanup jobs run by serve.
type Maintenance struct {
	carts *repositories.CartRepository
	// TempDir is scanned for stale import scratch dirs; "" is os.TempDir.
	TempDir string
	now     func() time.Time
}

func NewMaintenance(carts *repositories.CartRepository) *Maintenance {
	return &Maintenance{carts: carts, now: time.Now}
}

// Register adds the cleanup jobs to s.
func (m *Maintenance) Register(s *schedule.Scheduler) {
	s.Hourly().Name("cart:purge-guests").WithoutOverlapping().Run(m.PurgeGuestCarts)
	s.Every(30 * time.Minute).Name("import:sweep-scratch").WithoutOverlapping().Run(m.SweepScratch)
}

// PurgeGuestCarts drops ip-keyed cart rows untouched for a week.
func (m *Maintenance) PurgeGuestCarts(ctx context.Context) error {
	n, err := m.carts.PurgeGuests(ctx, m.now().Add(-GuestCartTTL))
	if err != nil {
		return err
	}
	if n > 0 {
		logger.WithCtx(ctx).Info("purged guest cart rows", "rows", n)
	}
	return nil
}

// SweepScratch removes import scratch directories older than an hour.
func (m *Maintenance) SweepScratch(ctx context.Context) error {
	dir := m.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, ScratchPattern))
	if err != nil {
		return err
	}
	cutoff := m.now().Add(-ScratchMaxAge)
	removed := 0
	for _, p := range matches {
		fi, err := os.Stat(p)
		if err != nil || !fi.IsDir() || fi.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			logger.WithCtx(ctx).Warn("scratch sweep failed", "dir", p, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.WithCtx(ctx).Info("removed stale import scratch dirs", "count", removed)
	}
	return nil
}
