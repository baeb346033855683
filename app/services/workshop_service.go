package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
	"github.com/shashiranjanraj/wellness360/pkg/validate"
)

type WorkshopInput struct {
	Title       string `form:"title" json:"title" validate:"max=255"`
	Description string `form:"description" json:"description"`
	Location    string `form:"location" json:"location" validate:"max=255"`
	StartsAt    string `form:"starts_at" json:"starts_at" validate:"nullable,date"`
	Capacity    int    `form:"capacity" json:"capacity" validate:"gte=0"`
}

// WorkshopBooked is the payload of event.WorkshopRegistration.
type WorkshopBooked struct {
	WorkshopID uint      `json:"workshop_id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
}

func (w WorkshopBooked) EventKey() string { return fmt.Sprintf("workshop-%d", w.WorkshopID) }

type WorkshopService struct {
	workshops *repositories.WorkshopRepository
	disk      func() storage.Disk
	now       func() time.Time
}

func NewWorkshopService(w *repositories.WorkshopRepository, disk func() storage.Disk) *WorkshopService {
	return &WorkshopService{workshops: w, disk: disk, now: time.Now}
}

// List returns upcoming workshops first, then past ones, marking those
// the caller registered for.
func (s *WorkshopService) List(ctx context.Context, id auth.Identity) ([]models.Workshop, error) {
	ws, err := s.workshops.List(ctx, s.now(), false, 0)
	if err != nil {
		return nil, err
	}
	return ws, s.markRegistered(ctx, id, ws)
}

func (s *WorkshopService) upcoming(ctx context.Context, id auth.Identity, limit int) ([]models.Workshop, error) {
	ws, err := s.workshops.List(ctx, s.now(), true, limit)
	if err != nil {
		return nil, err
	}
	return ws, s.markRegistered(ctx, id, ws)
}

func (s *WorkshopService) markRegistered(ctx context.Context, id auth.Identity, ws []models.Workshop) error {
	if !id.LoggedIn() || len(ws) == 0 {
		return nil
	}
	mine, err := s.workshops.RegisteredIDs(ctx, id.CustomerID)
	if err != nil {
		return err
	}
	for i := range ws {
		ws[i].IsRegistered = mine[ws[i].ID]
	}
	return nil
}

func (s *WorkshopService) Show(ctx context.Context, id auth.Identity, workshopID uint) (models.Workshop, error) {
	w, err := s.workshops.Find(ctx, workshopID)
	if err != nil {
		return w, notFound(err, "Workshop not found.")
	}
	ws := []models.Workshop{w}
	err = s.markRegistered(ctx, id, ws)
	return ws[0], err
}

func (s *WorkshopService) Mine(ctx context.Context, customerID uint) ([]models.Workshop, error) {
	ws, err := s.workshops.ForCustomer(ctx, customerID)
	for i := range ws {
		ws[i].IsRegistered = true
	}
	return ws, err
}

func (s *WorkshopService) Register(ctx context.Context, id auth.Identity, workshopID uint) (models.Workshop, error) {
	w, err := s.workshops.Find(ctx, workshopID)
	if err != nil {
		return w, notFound(err, "Workshop not found.")
	}
	if w.StartsAt.Before(s.now()) {
		return w, apperr.Invalidf("This workshop has already taken place.")
	}
	outcome, err := s.workshops.Register(ctx, workshopID, id.CustomerID, w.Capacity)
	if err != nil {
		return w, fmt.Errorf("register for workshop: %w", err)
	}
	switch outcome {
	case repositories.AlreadyRegistered:
		return w, apperr.Conflictf("You are already registered for this workshop.")
	case repositories.FullyBooked:
		return w, apperr.Conflictf("This workshop is fully booked.")
	}
	event.FireAsync(ctx, event.WorkshopRegistration, WorkshopBooked{
		WorkshopID: workshopID, Title: w.Title, StartsAt: w.StartsAt, Email: id.Email, Name: id.Name,
	})
	return s.Show(ctx, id, workshopID)
}

func (s *WorkshopService) Unregister(ctx context.Context, id auth.Identity, workshopID uint) error {
	ok, err := s.workshops.Unregister(ctx, workshopID, id.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("You are not registered for this workshop.")
	}
	return nil
}

func (s *WorkshopService) Create(ctx context.Context, adminID uint, in WorkshopInput, image *Upload) (models.Workshop, error) {
	errs := map[string]string{}
	if in.Title == "" {
		errs["title"] = "The title field is required."
	}
	if in.StartsAt == "" {
		errs["starts_at"] = "The starts_at field is required."
	}
	if in.Capacity < 1 {
		errs["capacity"] = "The capacity must be at least 1."
	}
	if len(errs) > 0 {
		return models.Workshop{}, apperr.Invalid(errs)
	}
	starts, err := validate.ParseDate(in.StartsAt)
	if err != nil {
		return models.Workshop{}, apperr.Invalid(map[string]string{"starts_at": "The starts_at is not a valid date."})
	}
	sl, err := uniqueSlug(ctx, in.Title, 0, s.workshops.SlugTaken)
	if err != nil {
		return models.Workshop{}, err
	}
	w := models.Workshop{
		Title:       in.Title,
		Slug:        sl,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    starts,
		Capacity:    in.Capacity,
		CreatedBy:   adminID,
	}
	if err := s.workshops.Create(ctx, &w); err != nil {
		return w, fmt.Errorf("create workshop: %w", err)
	}
	if image != nil {
		if err := s.setImage(ctx, &w, *image); err != nil {
			return w, err
		}
	}
	return s.Show(ctx, auth.Identity{}, w.ID)
}

func (s *WorkshopService) Update(ctx context.Context, workshopID uint, in WorkshopInput, image *Upload) (models.Workshop, error) {
	w, err := s.workshops.Find(ctx, workshopID)
	if err != nil {
		return w, notFound(err, "Workshop not found.")
	}
	fields := map[string]any{}
	if in.Title != "" && in.Title != w.Title {
		sl, err := uniqueSlug(ctx, in.Title, workshopID, s.workshops.SlugTaken)
		if err != nil {
			return w, err
		}
		fields["title"], fields["slug"] = in.Title, sl
	}
	if in.Description != "" {
		fields["description"] = in.Description
	}
	if in.Location != "" {
		fields["location"] = in.Location
	}
	if in.StartsAt != "" {
		starts, err := validate.ParseDate(in.StartsAt)
		if err != nil {
			return w, apperr.Invalid(map[string]string{"starts_at": "The starts_at is not a valid date."})
		}
		fields["starts_at"] = starts
	}
	if in.Capacity > 0 {
		if int64(in.Capacity) < w.Registered {
			return w, apperr.Invalid(map[string]string{"capacity": fmt.Sprintf("The capacity cannot be below the %d registered participants.", w.Registered)})
		}
		fields["capacity"] = in.Capacity
	}
	if len(fields) > 0 {
		if err := s.workshops.UpdateFields(ctx, workshopID, fields); err != nil {
			return w, fmt.Errorf("update workshop: %w", err)
		}
	}
	if image != nil {
		if err := s.setImage(ctx, &w, *image); err != nil {
			return w, err
		}
	}
	return s.Show(ctx, auth.Identity{}, workshopID)
}

func (s *WorkshopService) Delete(ctx context.Context, workshopID uint) error {
	w, err := s.workshops.Find(ctx, workshopID)
	if err != nil {
		return notFound(err, "Workshop not found.")
	}
	if err := s.workshops.Delete(ctx, workshopID); err != nil {
		return fmt.Errorf("delete workshop: %w", err)
	}
	if err := s.disk().DeleteDirectory(ctx, fmt.Sprintf("u%d/w%d", w.CreatedBy, w.ID)); err != nil {
		logger.WithCtx(ctx).Warn("workshop upload cleanup failed", "workshop_id", workshopID, "error", err)
	}
	return nil
}

func (s *WorkshopService) setImage(ctx context.Context, w *models.Workshop, up Upload) error {
	disk := s.disk()
	path, err := storeImage(ctx, disk, fmt.Sprintf("u%d/w%d", w.CreatedBy, w.ID), up)
	if err != nil {
		return err
	}
	if err := s.workshops.UpdateFields(ctx, w.ID, map[string]any{"image_path": path}); err != nil {
		removeUpload(ctx, disk, path)
		return fmt.Errorf("set workshop image: %w", err)
	}
	removeUpload(ctx, disk, w.ImagePath)
	w.ImagePath = path
	return nil
}
