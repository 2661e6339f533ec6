package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDWithOrders(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		input         SignupInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful signup",
			input: SignupInput{Email: " New@Example.com ", Password: "password123", FirstName: "Ada", LastName: "Lovelace"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "new@example.com" && u.Role == model.RoleCustomer && u.PasswordHash != "password123"
				})).Return(nil)
			},
		},
		{
			name:  "email already in use",
			input: SignupInput{Email: "taken@example.com", Password: "password123", FirstName: "A", LastName: "B"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:  "concurrent signup hits unique index",
			input: SignupInput{Email: "race@example.com", Password: "password123", FirstName: "A", LastName: "B"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService, new(MockTokenStore), zap.NewNop())

			payload, err := service.Signup(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, payload)
			} else {
				require.NoError(t, err)
				require.NotNil(t, payload)
				assert.Equal(t, "new@example.com", payload.User.Email)
				assert.Equal(t, "Ada", payload.User.FirstName)

				claims, err := jwtService.ValidateToken(payload.Token)
				require.NoError(t, err)
				assert.Equal(t, payload.User.ID.String(), claims.UserID)
				assert.Equal(t, model.RoleCustomer, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	adminID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "Admin@Example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "admin@example.com").Return(&model.User{
					ID:           adminID,
					Email:        "admin@example.com",
					PasswordHash: hash,
					Role:         model.RoleAdmin,
				}, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "admin@example.com",
			password: "password124",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "admin@example.com").Return(&model.User{
					ID:           adminID,
					Email:        "admin@example.com",
					PasswordHash: hash,
					Role:         model.RoleAdmin,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService, new(MockTokenStore), zap.NewNop())

			payload, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.EqualError(t, err, "Invalid credentials")
				assert.Nil(t, payload)
			} else {
				require.NoError(t, err)
				claims, err := jwtService.ValidateToken(payload.Token)
				require.NoError(t, err)
				assert.Equal(t, adminID.String(), claims.UserID)
				assert.Equal(t, model.RoleAdmin, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginDatabaseErrorIsNotInvalidCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, assert.AnError)

	service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"), new(MockTokenStore), zap.NewNop())
	_, err := service.Login(context.Background(), "a@example.com", "x")

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestAuthService_Logout(t *testing.T) {
	mockStore := new(MockTokenStore)
	mockStore.On("Revoke", mock.Anything, "token-1", mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 59*time.Minute && ttl <= time.Hour
	})).Return(nil)

	service := NewAuthService(new(MockUserRepository), auth.NewJWTService("test-secret"), mockStore, zap.NewNop())
	err := service.Logout(context.Background(), auth.Identity{
		UserID:    uuid.New(),
		Role:      model.RoleCustomer,
		TokenID:   "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}
