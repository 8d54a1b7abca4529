package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ymorita/hisho/internal/domain"
	"github.com/ymorita/hisho/internal/storage"
)

// ErrInvalidCredentials is returned for both unknown accounts and wrong
// passwords, so responses don't reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

const bcryptCost = 14

// AuthService handles account registration and login.
type AuthService struct {
	storage *storage.Storage
}

func NewAuthService(s *storage.Storage) *AuthService {
	return &AuthService{storage: s}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := s.storage.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.storage.CreateUser(email, string(hash), name)
}

// Login verifies credentials and returns the account.
func (s *AuthService) Login(email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.storage.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
