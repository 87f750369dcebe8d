package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const MinPasswordLength = 6

const (
	msgFieldsRequired = "all fields are required"
	msgInvalidEmail   = "invalid email address"
	msgShortPassword  = "password must be at least 6 characters"
	msgEmailExists    = "email already exists"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := NormalizeEmail(in.Email)
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if email == "" || in.Password == "" || first == "" || last == "" {
		return nil, invalid(msgFieldsRequired)
	}
	if !validEmail(email) {
		return nil, invalid(msgInvalidEmail)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid(msgShortPassword)
	}

	taken, err := s.Repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot check email", "error", err)
		return nil, err
	}
	if taken {
		l.Warn("register_error", "status", 409, "reason", "email already exists")
		return nil, conflict(msgEmailExists)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		FullName:     first + " " + last,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user, false); err != nil {
		if db.IsUniqueViolation(err) {
			l.Warn("register_error", "status", 409, "reason", "email already exists", "error", err)
			return nil, conflict(msgEmailExists)
		}
		l.Error("register_error", "status", 500, "reason", "cannot insert user", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, events.New(events.UserRegistered, user.ID.String(), map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	}))
	return user, nil
}

// Login never tells apart an unknown email, an inactive account and a wrong
// password: all three are ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	if !validEmail(email) {
		return nil, invalid(msgInvalidEmail)
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 422, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !user.IsActive {
		l.Warn("login_failed", "status", 422, "reason", "inactive user")
		return nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 422, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
