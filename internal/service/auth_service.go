package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// SignupInput carries the fields of a new customer account.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Address   *string
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthPayload, error)
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	Logout(ctx context.Context, id auth.Identity) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log *zap.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log.With(zap.String("service", "auth")),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a customer account and issues a token for it.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*AuthPayload, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID.String()))
	return &AuthPayload{Token: token, User: user}, nil
}

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("not-a-real-password")
	return hash
})

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			auth.VerifyPassword(password, dummyHash())
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &AuthPayload{Token: token, User: user}, nil
}

// Logout revokes the caller's current token until it would expire.
func (s *authService) Logout(ctx context.Context, id auth.Identity) error {
	ttl := time.Until(id.ExpiresAt)
	if err := s.tokenStore.Revoke(ctx, id.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Info("user logged out", zap.String("user_id", id.UserID.String()))
	return nil
}
