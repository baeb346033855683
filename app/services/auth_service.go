package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=6,confirmed"`
	PasswordConfirmation string `json:"password_confirmation"`
	Country              string `json:"country" validate:"max=100"`
	City                 string `json:"city" validate:"max=100"`
	Contact              string `json:"contact" validate:"max=50"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Country string `json:"country" validate:"max=100"`
	City    string `json:"city" validate:"max=100"`
	Contact string `json:"contact" validate:"max=50"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResult is returned by login, register and refresh.
type AuthResult struct {
	Customer     models.Customer `json:"customer"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
}

// Identity is the snapshot stored in the session and the token.
func (r AuthResult) Identity() auth.Identity { return identityOf(r.Customer) }

func identityOf(c models.Customer) auth.Identity {
	return auth.Identity{CustomerID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role}
}

const msgBadCredentials = "Invalid email or password."

type AuthService struct {
	customers *repositories.CustomerRepository
	cart      *CartService
	disk      func() storage.Disk
}

func NewAuthService(customers *repositories.CustomerRepository, cart *CartService, disk func() storage.Disk) *AuthService {
	return &AuthService{customers: customers, cart: cart, disk: disk}
}

// Register creates a customer account and signs it in. guestIP is the
// address whose cart is merged, empty for none.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, guestIP string) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken := apperr.Invalid(map[string]string{"email": "The email has already been taken."})
	if _, err := s.customers.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, taken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	c := models.Customer{
		Name:     in.Name,
		Email:    email,
		Password: hash,
		Country:  in.Country,
		City:     in.City,
		Contact:  in.Contact,
		Role:     auth.RoleCustomer,
	}
	if err := s.customers.Create(ctx, &c); err != nil {
		if database.IsDuplicate(err) {
			return AuthResult{}, taken
		}
		return AuthResult{}, fmt.Errorf("create customer: %w", err)
	}
	logger.WithCtx(ctx).Info("customer registered", "customer_id", c.ID)
	return s.signIn(ctx, c, guestIP)
}

// Login checks the credentials and merges the guest cart.
func (s *AuthService) Login(ctx context.Context, in LoginInput, guestIP string) (AuthResult, error) {
	c, err := s.customers.FindByEmail(ctx, in.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{}, apperr.Unauthorizedf(msgBadCredentials)
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !auth.CheckPassword(c.Password, in.Password) {
		return AuthResult{}, apperr.Unauthorizedf(msgBadCredentials)
	}
	return s.signIn(ctx, c, guestIP)
}

func (s *AuthService) signIn(ctx context.Context, c models.Customer, guestIP string) (AuthResult, error) {
	res, err := issueTokens(c)
	if err != nil {
		return res, err
	}
	if err := s.cart.Merge(ctx, guestIP, c.ID); err != nil {
		logger.WithCtx(ctx).Warn("guest cart merge failed", "customer_id", c.ID, "error", err)
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new token pair. The account is
// reloaded so a changed role or a deleted account takes effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	const msg = "Invalid or expired refresh token."
	claims, err := auth.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Unauthorized, err, msg)
	}
	c, err := s.customers.Find(ctx, claims.CustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{}, apperr.Unauthorizedf(msg)
	}
	if err != nil {
		return AuthResult{}, err
	}
	return issueTokens(c)
}

func issueTokens(c models.Customer) (AuthResult, error) {
	id := identityOf(c)
	token, err := auth.GenerateToken(id)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(id)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return AuthResult{Customer: c, Token: token, RefreshToken: refresh}, nil
}

// Me returns the current customer.
func (s *AuthService) Me(ctx context.Context, id uint) (models.Customer, error) {
	c, err := s.customers.Find(ctx, id)
	return c, notFound(err, "Account not found.")
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (models.Customer, error) {
	err := s.customers.UpdateFields(ctx, id, map[string]any{
		"name":    in.Name,
		"country": in.Country,
		"city":    in.City,
		"contact": in.Contact,
	})
	if err != nil {
		return models.Customer{}, notFound(err, "Account not found.")
	}
	return s.Me(ctx, id)
}

// SetImage stores a profile picture under u{id}/profile and replaces the
// previous one.
func (s *AuthService) SetImage(ctx context.Context, id uint, up Upload) (models.Customer, error) {
	c, err := s.Me(ctx, id)
	if err != nil {
		return c, err
	}
	disk := s.disk()
	path, err := storeImage(ctx, disk, fmt.Sprintf("u%d/profile", id), up)
	if err != nil {
		return c, err
	}
	if err := s.customers.UpdateFields(ctx, id, map[string]any{"image": path}); err != nil {
		removeUpload(ctx, disk, path)
		return c, err
	}
	removeUpload(ctx, disk, c.Image)
	c.Image = path
	return c, nil
}
