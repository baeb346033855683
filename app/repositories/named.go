// Package repositories is the data access layer. Every query goes
// through gorm with bound parameters; no SQL is built from input.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// findByName looks a row up by name ignoring case.
func findByName[T any](ctx context.Context, db *gorm.DB, name string, dest *T) (bool, error) {
	err := db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// findOrCreateByName returns the id of the row named name, creating it
// when absent. An insert that loses a race on the unique name index is
// followed by one more lookup before giving up.
func findOrCreateByName[T any](ctx context.Context, db *gorm.DB, name string, build func(string) *T, id func(*T) uint) (uint, bool, error) {
	var existing T
	found, err := findByName(ctx, db, name, &existing)
	if err != nil {
		return 0, false, err
	}
	if found {
		return id(&existing), false, nil
	}

	row := build(strings.TrimSpace(name))
	createErr := db.WithContext(ctx).Create(row).Error
	if createErr == nil {
		return id(row), true, nil
	}

	var winner T
	if found, err := findByName(ctx, db, name, &winner); err == nil && found {
		return id(&winner), false, nil
	}
	return 0, false, fmt.Errorf("create %q: %w", name, createErr)
}
