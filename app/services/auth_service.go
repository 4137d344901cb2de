package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/auth"
	"github.com/hayatshop/storefront/pkg/logger"
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

// Session is a signed-in user and their access token.
type Session struct {
	User    models.User `json:"user"`
	Token   string      `json:"token"`
	IsAdmin bool        `json:"isAdmin"`
}

type AuthService struct {
	store  repositories.Store
	tokens *auth.Tokens
	policy auth.AdminPolicy
	now    func() time.Time
}

func NewAuthService(store repositories.Store, tokens *auth.Tokens, policy auth.AdminPolicy) *AuthService {
	return &AuthService{store: store, tokens: tokens, policy: policy, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in Credentials) (Session, error) {
	const op = "AuthService.Register"

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	logger.WithCtx(ctx).Info("user registered", "op", op, "user_id", u.ID)
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, in Credentials) (Session, error) {
	const op = "AuthService.Login"

	u, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, repositories.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// Me returns the user behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, bool, error) {
	const op = "AuthService.Me"

	u, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return models.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, s.policy.IsAdmin(u.Email), nil
}

// Users lists registered users for the back office, newest first.
func (s *AuthService) Users(ctx context.Context, limit int) ([]models.User, error) {
	const op = "AuthService.Users"

	users, err := s.store.Users().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *AuthService) session(u models.User) (Session, error) {
	token, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("AuthService.session: %w", err)
	}
	return Session{User: u, Token: token, IsAdmin: s.policy.IsAdmin(u.Email)}, nil
}
