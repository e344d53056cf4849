package service

import (
	"context"
	"errors"
	"strings"

	dom "github.com/lucasvital/todocomplete/internal/domain"
	"github.com/lucasvital/todocomplete/internal/repo"
	"github.com/lucasvital/todocomplete/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid e-mail or password")
var ErrEmailTaken = errors.New("e-mail already registered")

// MinPasswordLength is enforced on registration only.
const MinPasswordLength = 6

// UserService handles user auth logic.
type UserService struct {
	repo repo.UserRepo
	cost int
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// HashPassword returns the bcrypt hash stored for password.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ValidateCredentials checks e-mail and password; returns user if valid.
// Accounts created through Google have no password and never validate here.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (dom.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, dom.ErrNotFound) {
			return dom.User{}, ErrInvalidCredentials
		}
		return dom.User{}, err
	}
	if u.PasswordHash == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates a new user with hashed password.
func (s *UserService) Register(ctx context.Context, email, password string) (dom.User, error) {
	email = utils.NormalizeEmail(email)
	if !strings.Contains(email, "@") || len(password) < MinPasswordLength {
		return dom.User{}, ErrInvalidCredentials
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.repo.Create(ctx, email, hash)
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, ErrEmailTaken
		}
		return dom.User{}, err
	}
	return u, nil
}

// SignInExternal returns the account for an e-mail verified by an external
// provider, creating it on first sign-in.
func (s *UserService) SignInExternal(ctx context.Context, email string) (dom.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	return s.repo.EnsureExternal(ctx, email)
}

// Email returns the e-mail of user id.
func (s *UserService) Email(ctx context.Context, id string) (string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
