package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/migration"
	"github.com/shashiranjanraj/wellness360/pkg/queue"
)

func init() {
	migration.Register("20260301000600_create_failed_jobs_table", migration.Define(
		func(db *gorm.DB) error { return db.AutoMigrate(&queue.FailedJob{}) },
		func(db *gorm.DB) error { return db.Migrator().DropTable(&queue.FailedJob{}) },
	))
}
