package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notesapi/internal/auth"
	apperrors "notesapi/internal/errors"
	"notesapi/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
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

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}
	return svc
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    "alice@example.com",
			username: "alice",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "email already registered",
			email:    "taken@example.com",
			username: "alice",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: 2, Email: "taken@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:     "username already taken",
			email:    "alice@example.com",
			username: "taken",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "taken").Return(&model.User{ID: 2, Username: "taken"}, nil)
			},
			expectedError: apperrors.ErrUsernameTaken,
		},
		{
			name:     "duplicate key race surfaces as conflict",
			email:    "alice@example.com",
			username: "alice",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrWriteConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := NewAuthService(mockRepo, newTestJWTService(t))
			user, err := svc.Register(context.Background(), tt.email, tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.username, user.Username)
				assert.True(t, user.Active)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("pw123456"), bcryptCost)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           7,
					Username:     "alice",
					PasswordHash: string(hashed),
					Active:       true,
				}, nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown username",
			username: "ghost",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "not-the-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           7,
					Username:     "alice",
					PasswordHash: string(hashed),
					Active:       true,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := newTestJWTService(t)
			svc := NewAuthService(mockRepo, jwtService)
			token, user, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.NotNil(t, user)

				claims, err := jwtService.ValidateToken(token)
				assert.NoError(t, err)
				assert.Equal(t, tt.username, claims.Subject)
				assert.Equal(t, user.ID, claims.UserID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// Unknown-username and wrong-password failures must be indistinguishable in
// their result.
func TestAuthService_LoginFailuresIndistinguishable(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("pw123456"), bcryptCost)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
		ID: 7, Username: "alice", PasswordHash: string(hashed), Active: true,
	}, nil)

	svc := NewAuthService(mockRepo, newTestJWTService(t))

	_, _, errUnknown := svc.Login(context.Background(), "ghost", "whatever")
	_, _, errWrongPw := svc.Login(context.Background(), "alice", "whatever")

	assert.Equal(t, errUnknown, errWrongPw)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	t.Run("active user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Active: true}, nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.GetCurrentUser(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, uint(1), user.ID)
	})

	t.Run("inactive user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Active: false}, nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.GetCurrentUser(context.Background(), 1)
		assert.ErrorIs(t, err, apperrors.ErrInactiveUser)
		assert.Nil(t, user)
	})

	t.Run("missing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.GetCurrentUser(context.Background(), 99)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.Nil(t, user)
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	strptr := func(s string) *string { return &s }

	t.Run("partial update changes only supplied fields", func(t *testing.T) {
		existing := &model.User{
			ID:           1,
			Email:        "alice@example.com",
			Username:     "alice",
			PasswordHash: "old-hash",
			Active:       true,
		}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(existing, nil)
		mockRepo.On("FindByUsername", mock.Anything, "alice2").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Username: strptr("alice2")})

		assert.NoError(t, err)
		assert.Equal(t, "alice2", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "old-hash", user.PasswordHash)
		mockRepo.AssertExpectations(t)
	})

	t.Run("password change re-hashes", func(t *testing.T) {
		existing := &model.User{ID: 1, Email: "alice@example.com", Username: "alice", PasswordHash: "old-hash", Active: true}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(existing, nil)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Password: strptr("new-password")})

		assert.NoError(t, err)
		assert.NotEqual(t, "old-hash", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
	})

	t.Run("email taken by another user", func(t *testing.T) {
		existing := &model.User{ID: 1, Email: "alice@example.com", Username: "alice", Active: true}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(existing, nil)
		mockRepo.On("FindByEmail", mock.Anything, "bob@example.com").Return(&model.User{ID: 2, Email: "bob@example.com"}, nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		user, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: strptr("bob@example.com")})

		assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		assert.Nil(t, user)
	})

	t.Run("changing email to own current value is allowed", func(t *testing.T) {
		existing := &model.User{ID: 1, Email: "alice@example.com", Username: "alice", Active: true}
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(existing, nil)
		mockRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(existing, nil)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		svc := NewAuthService(mockRepo, newTestJWTService(t))
		_, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: strptr("alice@example.com")})

		assert.NoError(t, err)
	})
}
