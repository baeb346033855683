package models

import "time"

// Article is a PDF publication in the wellness hub. Body holds the PDF
// bytes and is never serialised or loaded by list queries.
type Article struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Slug       string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Author     string    `gorm:"size:255" json:"author"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	Body       []byte    `json:"-"`
	BodySize   int64     `gorm:"not null;default:0" json:"body_size"`
	ImagePath  string    `gorm:"size:255" json:"image_path"`
	ViewCount  int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedBy  uint      `gorm:"index" json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ArticleView struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ArticleID  uint      `gorm:"not null;index" json:"article_id"`
	CustomerID *uint     `gorm:"index" json:"customer_id"`
	IPAddress  string    `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

type Discussion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   *Customer `json:"author,omitempty"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Category   string    `gorm:"size:100;index" json:"category"`
	Replies    []Reply   `json:"replies,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ReplyCount int64 `gorm:"->;-:migration" json:"reply_count"`
}

type Reply struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	CustomerID   uint      `gorm:"not null;index" json:"customer_id"`
	Customer     *Customer `json:"author,omitempty"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Workshop struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:255" json:"location"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	Capacity    int       `gorm:"not null;default:1" json:"capacity"`
	ImagePath   string    `gorm:"size:255" json:"image_path"`
	CreatedBy   uint      `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Registered   int64 `gorm:"->;-:migration" json:"registered"`
	SeatsLeft    int64 `gorm:"-" json:"seats_left"`
	IsRegistered bool  `gorm:"-" json:"is_registered"`
}

// FillSeats derives SeatsLeft from Capacity and Registered.
func (w *Workshop) FillSeats() {
	w.SeatsLeft = int64(w.Capacity) - w.Registered
	if w.SeatsLeft < 0 {
		w.SeatsLeft = 0
	}
}

// WorkshopRegistration is unique per (workshop, customer).
type WorkshopRegistration struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WorkshopID uint      `gorm:"not null;uniqueIndex:idx_workshop_customer" json:"workshop_id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_workshop_customer;index" json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}
