// File: internal/services/user_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agrisaarthi/agrisaarthi/internal/auth"
	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserService handles account lifecycle: signup, login with JWT issuance,
// profile management, user search, and the remembered-login blob.
type UserService struct {
	userRepo  user.UserRepository
	stateRepo clientstate.StateRepository
	jwtSecret []byte
	logger    Logger
}

func NewUserService(userRepo user.UserRepository, stateRepo clientstate.StateRepository, secretKey string, logger Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		stateRepo: stateRepo,
		jwtSecret: []byte(secretKey),
		logger:    logger,
	}
}

// Register creates an account. The caller supplies a populated profile and
// the plaintext password; the id and hash are assigned here.
func (s *UserService) Register(ctx context.Context, u *domain.User, plainPassword string) (*domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := u.IsValid(); err != nil {
		return nil, err
	}
	if err := u.HashPassword(plainPassword); err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("Failed to create user", "email", u.Email, "error", err)
		return nil, ErrStoreUnavailable
	}

	s.logger.Info("User registered", "user_id", created.ID, "region", created.Region)
	return created, nil
}

// Login validates credentials and returns the user with a signed token.
// Credential failures are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", ErrStoreUnavailable
	}
	if err := u.ValidatePassword(password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", u.ID, "error", err)
		return nil, "", errors.New("could not generate token")
	}

	s.rememberLastUser(ctx, u.ID)
	return u, token, nil
}

// GetProfile returns the account for userID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, ErrStoreUnavailable
	}
	return u, nil
}

// UpdateProfile applies the editable profile fields. Email and password are
// not changed here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, fullName, phone, language, region string, crops []string) (*domain.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if fullName != "" {
		u.FullName = fullName
	}
	if phone != "" {
		u.Phone = phone
	}
	if language != "" {
		u.Language = language
	}
	if region != "" {
		u.Region = region
	}
	if crops != nil {
		u.Crops = crops
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update profile", "user_id", userID, "error", err)
		return nil, ErrStoreUnavailable
	}
	return u, nil
}

const searchResultLimit = 10

// Search finds users matching query by name, email or region, excluding the
// searcher. Queries under two characters return nothing.
func (s *UserService) Search(ctx context.Context, selfID, query string) ([]domain.User, error) {
	if len(query) < 2 {
		return nil, nil
	}
	users, err := s.userRepo.Search(ctx, query, selfID, searchResultLimit)
	if err != nil {
		s.logger.Error("User search failed", "query", query, "error", err)
		return nil, ErrStoreUnavailable
	}
	return users, nil
}

type lastUserBlob struct {
	UserID   string    `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
}

// LastUser returns the most recently logged-in user id, or "" when none is
// remembered.
func (s *UserService) LastUser(ctx context.Context) string {
	payload, err := s.stateRepo.Get(ctx, clientstate.KeyLastUser)
	if err != nil {
		if !errors.Is(err, clientstate.ErrStateNotFound) {
			s.logger.Warn("Failed to load last-user state", "error", err)
		}
		return ""
	}
	var blob lastUserBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return ""
	}
	return blob.UserID
}

// ForgetLastUser clears the remembered login, used on logout.
func (s *UserService) ForgetLastUser(ctx context.Context) {
	if err := s.stateRepo.Delete(ctx, clientstate.KeyLastUser); err != nil && !errors.Is(err, clientstate.ErrStateNotFound) {
		s.logger.Warn("Failed to clear last-user state", "error", err)
	}
}

func (s *UserService) rememberLastUser(ctx context.Context, userID string) {
	payload, err := json.Marshal(lastUserBlob{UserID: userID, LoggedAt: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := s.stateRepo.Put(ctx, clientstate.KeyLastUser, payload); err != nil {
		s.logger.Warn("Failed to persist last-user state", "error", err)
	}
}
