package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

// authorColumns limits preloaded authors to public fields.
func authorColumns(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "image") }

// CommunityRepository handles discussions and replies.
type CommunityRepository struct{ db *gorm.DB }

func NewCommunityRepository(db *gorm.DB) *CommunityRepository { return &CommunityRepository{db: db} }

// Discussions pages discussions newest first with reply counts filled.
func (r *CommunityRepository) Discussions(ctx context.Context, category string, p orm.Page) ([]models.Discussion, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Discussion{})
	if category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", category)
	}
	var out []models.Discussion
	pg, err := orm.Paginate(q, p, "created_at DESC, id DESC", &out, orm.Preload("Customer", authorColumns))
	if err != nil {
		return nil, pg, err
	}
	return out, pg, r.fillReplyCounts(ctx, out)
}

func (r *CommunityRepository) fillReplyCounts(ctx context.Context, ds []models.Discussion) error {
	if len(ds) == 0 {
		return nil
	}
	ids := make([]uint, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	var rows []struct {
		DiscussionID uint
		N            int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reply{}).
		Select("discussion_id, COUNT(*) AS n").
		Where("discussion_id IN ?", ids).
		Group("discussion_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.DiscussionID] = row.N
	}
	for i := range ds {
		ds[i].ReplyCount = counts[ds[i].ID]
	}
	return nil
}

// Find loads a discussion with its replies, oldest reply first.
func (r *CommunityRepository) Find(ctx context.Context, id uint) (models.Discussion, error) {
	var d models.Discussion
	err := r.db.WithContext(ctx).
		Preload("Customer", authorColumns).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Replies.Customer", authorColumns).
		First(&d, id).Error
	d.ReplyCount = int64(len(d.Replies))
	return d, err
}

// Categories returns the distinct non-empty discussion categories.
func (r *CommunityRepository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &out).Error
	return out, err
}

func (r *CommunityRepository) Create(ctx context.Context, d *models.Discussion) error {
	return r.db.WithContext(ctx).Omit("Customer", "Replies").Create(d).Error
}

func (r *CommunityRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Discussion{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *CommunityRepository) CreateReply(ctx context.Context, rep *models.Reply) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(rep).Error
}

// Delete removes a discussion and its replies.
func (r *CommunityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("discussion_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Discussion{}, id).Error
	})
}

// WorkshopRepository handles workshops and registrations.
type WorkshopRepository struct{ db *gorm.DB }

func NewWorkshopRepository(db *gorm.DB) *WorkshopRepository { return &WorkshopRepository{db: db} }

func (r *WorkshopRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Workshop{}).
		Select("workshops.*, (SELECT COUNT(*) FROM workshop_registrations WHERE workshop_registrations.workshop_id = workshops.id) AS registered")
}

// List returns upcoming workshops soonest first, then past ones most
// recent first. limit <= 0 means no limit.
func (r *WorkshopRepository) List(ctx context.Context, now time.Time, upcomingOnly bool, limit int) ([]models.Workshop, error) {
	var upcoming, past []models.Workshop
	q := r.withCounts(ctx).Where("starts_at >= ?", now).Order("starts_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&upcoming).Error; err != nil {
		return nil, err
	}
	if upcomingOnly {
		return fill(upcoming), nil
	}
	if err := r.withCounts(ctx).Where("starts_at < ?", now).Order("starts_at DESC, id DESC").Find(&past).Error; err != nil {
		return nil, err
	}
	return fill(append(upcoming, past...)), nil
}

func fill(ws []models.Workshop) []models.Workshop {
	for i := range ws {
		ws[i].FillSeats()
	}
	return ws
}

func (r *WorkshopRepository) Find(ctx context.Context, id uint) (models.Workshop, error) {
	var w models.Workshop
	err := r.withCounts(ctx).Where("workshops.id = ?", id).First(&w).Error
	w.FillSeats()
	return w, err
}

// ForCustomer lists the workshops a customer registered for.
func (r *WorkshopRepository) ForCustomer(ctx context.Context, customerID uint) ([]models.Workshop, error) {
	var out []models.Workshop
	err := r.withCounts(ctx).
		Where("workshops.id IN (?)", r.db.Model(&models.WorkshopRegistration{}).Select("workshop_id").Where("customer_id = ?", customerID)).
		Order("starts_at ASC").
		Find(&out).Error
	return fill(out), err
}

// RegisteredIDs returns which of ids the customer is registered for.
func (r *WorkshopRepository) RegisteredIDs(ctx context.Context, customerID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.WorkshopRegistration{}).
		Where("customer_id = ?", customerID).
		Pluck("workshop_id", &ids).Error
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

func (r *WorkshopRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Workshop{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *WorkshopRepository) Create(ctx context.Context, w *models.Workshop) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WorkshopRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Workshop{ID: id}).Updates(fields).Error
}

func (r *WorkshopRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workshop_id = ?", id).Delete(&models.WorkshopRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workshop{}, id).Error
	})
}

// RegistrationOutcome is the result of WorkshopRepository.Register.
type RegistrationOutcome int

const (
	Registered RegistrationOutcome = iota
	AlreadyRegistered
	FullyBooked
)

// Register checks the seat count and inserts the registration in one
// transaction. The workshop row is locked first so concurrent
// registrations count seats one at a time; the unique (workshop, customer)
// index backs the duplicate check.
func (r *WorkshopRepository) Register(ctx context.Context, workshopID, customerID uint, capacity int) (RegistrationOutcome, error) {
	outcome := Registered
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&w, workshopID).Error; err != nil {
			return err
		}
		var mine int64
		if err := tx.Model(&models.WorkshopRegistration{}).
			Where("workshop_id = ? AND customer_id = ?", workshopID, customerID).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			outcome = AlreadyRegistered
			return nil
		}
		var taken int64
		if err := tx.Model(&models.WorkshopRegistration{}).Where("workshop_id = ?", workshopID).Count(&taken).Error; err != nil {
			return err
		}
		if taken >= int64(capacity) {
			outcome = FullyBooked
			return nil
		}
		return tx.Create(&models.WorkshopRegistration{WorkshopID: workshopID, CustomerID: customerID}).Error
	})
	return outcome, err
}

// Unregister reports whether a registration was removed.
func (r *WorkshopRepository) Unregister(ctx context.Context, workshopID, customerID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("workshop_id = ? AND customer_id = ?", workshopID, customerID).
		Delete(&models.WorkshopRegistration{})
	return res.RowsAffected > 0, res.Error
}

// WishlistRepository handles saved products.
type WishlistRepository struct{ db *gorm.DB }

func NewWishlistRepository(db *gorm.DB) *WishlistRepository { return &WishlistRepository{db: db} }

func (r *WishlistRepository) List(ctx context.Context, customerID uint) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("customer_id = ?", customerID).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// Add is idempotent.
func (r *WishlistRepository) Add(ctx context.Context, customerID, productID uint) error {
	item := models.WishlistItem{CustomerID: customerID, ProductID: productID}
	return r.db.WithContext(ctx).
		Where(models.WishlistItem{CustomerID: customerID, ProductID: productID}).
		FirstOrCreate(&item).Error
}

func (r *WishlistRepository) Remove(ctx context.Context, customerID, productID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("customer_id = ? AND product_id = ?", customerID, productID).Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}
