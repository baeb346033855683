package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

type DiscussionInput struct {
	Title    string `json:"title" form:"title" validate:"required,max=255"`
	Body     string `json:"body" form:"body" validate:"required,max=10000"`
	Category string `json:"category" form:"category" validate:"max=100"`
}

type ReplyInput struct {
	Body string `json:"body" form:"body" validate:"required,max=5000"`
}

// Community is the community landing aggregate.
type Community struct {
	Discussions []models.Discussion `json:"discussions"`
	Categories  []string            `json:"categories"`
	Workshops   []models.Workshop   `json:"workshops"`
}

// Posted is the payload of the community events.
type Posted struct {
	DiscussionID uint   `json:"discussion_id"`
	ReplyID      uint   `json:"reply_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Category     string `json:"category,omitempty"`
	Author       string `json:"author"`
}

type CommunityService struct {
	discussions *repositories.CommunityRepository
	workshops   *WorkshopService
}

func NewCommunityService(d *repositories.CommunityRepository, w *WorkshopService) *CommunityService {
	return &CommunityService{discussions: d, workshops: w}
}

func (s *CommunityService) Landing(ctx context.Context, id auth.Identity, category string) (Community, error) {
	ds, _, err := s.discussions.Discussions(ctx, category, orm.NewPage(1, 10))
	if err != nil {
		return Community{}, err
	}
	cats, err := s.discussions.Categories(ctx)
	if err != nil {
		return Community{}, err
	}
	ws, err := s.workshops.upcoming(ctx, id, 4)
	if err != nil {
		return Community{}, err
	}
	return Community{Discussions: ds, Categories: cats, Workshops: ws}, nil
}

func (s *CommunityService) Discussions(ctx context.Context, category string, p orm.Page) ([]models.Discussion, orm.Pagination, error) {
	return s.discussions.Discussions(ctx, category, p)
}

func (s *CommunityService) Discussion(ctx context.Context, id uint) (models.Discussion, error) {
	d, err := s.discussions.Find(ctx, id)
	return d, notFound(err, "Discussion not found.")
}

func (s *CommunityService) Start(ctx context.Context, author auth.Identity, in DiscussionInput) (models.Discussion, error) {
	d := models.Discussion{CustomerID: author.CustomerID, Title: in.Title, Body: in.Body, Category: in.Category}
	if err := s.discussions.Create(ctx, &d); err != nil {
		return d, fmt.Errorf("create discussion: %w", err)
	}
	event.FireAsync(ctx, event.CommunityDiscussion, Posted{
		DiscussionID: d.ID, Title: d.Title, Category: d.Category, Author: author.Name,
	})
	return s.Discussion(ctx, d.ID)
}

func (s *CommunityService) Reply(ctx context.Context, author auth.Identity, discussionID uint, in ReplyInput) (models.Reply, error) {
	ok, err := s.discussions.Exists(ctx, discussionID)
	if err != nil {
		return models.Reply{}, err
	}
	if !ok {
		return models.Reply{}, apperr.NotFoundf("Discussion not found.")
	}
	r := models.Reply{DiscussionID: discussionID, CustomerID: author.CustomerID, Body: in.Body}
	if err := s.discussions.CreateReply(ctx, &r); err != nil {
		return r, fmt.Errorf("create reply: %w", err)
	}
	event.FireAsync(ctx, event.CommunityReply, Posted{DiscussionID: discussionID, ReplyID: r.ID, Author: author.Name})
	r.Customer = &models.Customer{ID: author.CustomerID, Name: author.Name}
	return r, nil
}

// Delete removes a discussion. Only its author or an admin may.
func (s *CommunityService) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	d, err := s.Discussion(ctx, id)
	if err != nil {
		return err
	}
	if d.CustomerID != actor.CustomerID && !actor.IsAdmin() {
		return apperr.Forbiddenf("You can only delete your own discussions.")
	}
	return s.discussions.Delete(ctx, id)
}
