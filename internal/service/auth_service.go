package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notesapi/internal/auth"
	apperrors "notesapi/internal/errors"
	"notesapi/internal/model"
	"notesapi/internal/repository"
)

const bcryptCost = 10

// dummyHash keeps the login code path comparable for unknown usernames so
// response timing does not reveal whether an account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("credential-padding"), bcryptCost)

// ProfileUpdate carries the optional fields of a profile update. A nil
// field means "leave unchanged".
type ProfileUpdate struct {
	Email    *string
	Username *string
	Password *string
}

// AuthService handles registration, login and profile management.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	GetCurrentUser(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register creates a new active user with a hashed password. Duplicate
// email or username yields a conflict.
func (s *authService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	if err := s.checkEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUsernameFree(ctx, username, 0); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashed),
		Active:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The pre-checks race against concurrent registrations; the unique
		// indexes are the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrWriteConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates by username and returns a signed access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		// Burn a comparison so unknown users cost the same as bad passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	return token, user, nil
}

// GetCurrentUser loads the authenticated user and rejects deactivated accounts.
func (s *authService) GetCurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.ErrInactiveUser
	}
	return user, nil
}

// UpdateProfile applies only the supplied fields. A supplied password is
// re-hashed; email and username changes go through the uniqueness checks.
func (s *authService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		if err := s.checkEmailFree(ctx, *update.Email, userID); err != nil {
			return nil, err
		}
		user.Email = *update.Email
	}
	if update.Username != nil {
		if err := s.checkUsernameFree(ctx, *update.Username, userID); err != nil {
			return nil, err
		}
		user.Username = *update.Username
	}
	if update.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrWriteConflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *authService) checkEmailFree(ctx context.Context, email string, selfID uint) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil && existing.ID != selfID {
		return apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

func (s *authService) checkUsernameFree(ctx context.Context, username string, selfID uint) error {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil && existing.ID != selfID {
		return apperrors.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	return nil
}
