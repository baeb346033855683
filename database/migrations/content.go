package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/migration"
)

func init() {
	migration.Register("20260301000400_create_articles_tables", &CreateArticlesTables{})
	migration.Register("20260301000500_create_community_tables", &CreateCommunityTables{})
}

// -------- 0400: articles --------

type CreateArticlesTables struct{}

func (m *CreateArticlesTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Article{}, &models.ArticleView{})
}

func (m *CreateArticlesTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("article_views", "articles")
}

// -------- 0500: discussions, replies, workshops --------

type CreateCommunityTables struct{}

func (m *CreateCommunityTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Discussion{},
		&models.Reply{},
		&models.Workshop{},
		&models.WorkshopRegistration{},
	)
}

func (m *CreateCommunityTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("workshop_registrations", "workshops", "replies", "discussions")
}
