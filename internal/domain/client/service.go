package client

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for registration input.
var (
	ErrMissingFields = errors.New("name, email and password are required")
)

// RegisterParams holds the input for registering a new client.
type RegisterParams struct {
	Name      string
	Email     string
	Password  string
	Subscribe bool
	Phone     string
}

// Service implements client registration and login.
type Service struct {
	repo Repository
}

// NewService creates a client Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new client with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Client, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	if params.Name == "" || params.Email == "" || params.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	c := &Client{
		ID:           uuid.New().String(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Subscribe:    params.Subscribe,
		Phone:        params.Phone,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Login verifies the email/password pair and returns the matching client.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get client")
	}

	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return c, nil
}
