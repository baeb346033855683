package seeders

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
)

func init() {
	Register("workshops", SeedWorkshops)
}

// SeedWorkshops schedules two sample workshops a few weeks out.
func SeedWorkshops(db *gorm.DB) error {
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 14).Add(10 * time.Hour)
	for i, title := range []string{"Mindful Mornings", "Eating Well on a Budget"} {
		w := models.Workshop{
			Title:       title,
			Slug:        slug.Make(title),
			Description: title + " community session.",
			Location:    "Accra",
			StartsAt:    start.AddDate(0, 0, 7*i),
			Capacity:    20,
		}
		if err := db.Where(models.Workshop{Slug: w.Slug}).FirstOrCreate(&w).Error; err != nil {
			return err
		}
	}
	return nil
}
