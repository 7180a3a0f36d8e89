package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/zombor/fuel-station/internal/station"
)

// ErrInvalidCredentials is returned when the email is unknown or the password does not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterInput is a sign-up request
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a signed token together with the user it identifies
type Session struct {
	Token string        `json:"token"`
	User  *station.User `json:"user"`
}

// Service registers and signs in users
type Service struct {
	users       station.UserStore
	tokens      *Tokens
	idGenerator station.IDGenerator
	timeSource  station.TimeSource
}

// NewService creates a new Service with UUID ids and the system clock
func NewService(users station.UserStore, tokens *Tokens) *Service {
	return NewServiceWithDeps(users, tokens, station.UUIDGenerator{}, station.SystemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(users station.UserStore, tokens *Tokens, idGen station.IDGenerator, timeSrc station.TimeSource) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and signs them in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	verr := station.NewValidationError("Please enter all fields")
	if in.Name == "" {
		verr.Add("name", "Name is required")
	}
	if in.Email == "" {
		verr.Add("email", "Email is required")
	}
	if in.Password == "" {
		verr.Add("password", "Password is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, station.Invalid("email", "User already exists with this email")
	case !errors.Is(err, station.ErrNotFound):
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, station.Invalid("password", "Password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &station.User{
		ID:           s.idGenerator.Generate(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.timeSource.Now(),
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, station.ErrDuplicate) {
		return nil, station.Invalid("email", "User already exists with this email")
	}
	if err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	slog.Info("user registered", "id", user.ID, "email", user.Email)
	return s.session(user)
}

// Login checks the password and signs the user in
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, station.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "email", user.Email)
		return nil, ErrInvalidCredentials
	}

	return s.session(user)
}

func (s *Service) session(user *station.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate verifies a token
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}

// CurrentUser returns the user a token was issued to
func (s *Service) CurrentUser(ctx context.Context, id string) (*station.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}
