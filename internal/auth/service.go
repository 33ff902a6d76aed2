package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/models"
)

// UserStore defines the interface for user persistence. Lookups of a
// missing user return a NotFound AppError; a duplicate email on create
// returns a Conflict AppError.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Service implements registration, login and profile lookup.
type Service struct {
	users    UserStore
	tokens   *TokenIssuer
	validate *validator.Validate
	log      logging.Logger
}

func NewService(users UserStore, tokens *TokenIssuer, log logging.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Register creates a user and signs a session claim for it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidation("All fields are required")
	}

	_, err := s.users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperror.NewConflict("User already exists", nil)
	case !apperror.IsNotFound(err):
		return nil, err
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		if apperror.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, req.Username, req.Email, hashed)
	if err != nil {
		return nil, err
	}

	token, _, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return &models.AuthResponse{Token: token, User: stripped(user)}, nil
}

// Login verifies credentials and signs a fresh session claim.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidation("All fields are required")
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("User does not exist")
		}
		return nil, err
	}

	ok, err := CheckPassword(user.Password, req.Password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, apperror.NewAuth("Invalid credentials", nil)
	}

	token, _, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: stripped(user)}, nil
}

// Profile returns the user identified by verified claims with its blogs
// expanded. The id is never taken from request parameters.
func (s *Service) Profile(ctx context.Context, claims *Claims) (*models.Profile, error) {
	if claims == nil || claims.UserID == "" {
		return nil, apperror.NewAuth("Not authenticated", nil)
	}
	profile, err := s.users.GetProfile(ctx, claims.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("User not found")
		}
		return nil, err
	}
	if profile.BlogCreated == nil {
		profile.BlogCreated = []models.Blog{}
	}
	return profile, nil
}

func stripped(u *models.User) *models.User {
	cp := *u
	cp.Password = ""
	if cp.BlogCreated == nil {
		cp.BlogCreated = []string{}
	}
	return &cp
}
