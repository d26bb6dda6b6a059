package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// sessionIdle is how long a session survives without a heartbeat.
const sessionIdle = 15 * time.Minute

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ChangePassword(email, oldPassword, newPassword string) error
	ResetPassword(email, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(userID uuid.UUID) error
	EnsureOwner(email, password, name string) (bool, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       string             `json:"role"`
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       string             `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, pub events.Publisher) AuthService {
	return &authService{
		userRepo:  userRepo,
		publisher: pub,
		now:       time.Now,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single session: versi token baru membatalkan sesi lama
	newTokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, newTokenVersion); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if err := s.userRepo.UpdateLastSeen(user.ID); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	now := s.now()
	user.TokenVersion = newTokenVersion
	user.LastSeenAt = &now

	// 5. Generate JWT token with TokenVersion
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.Role, user.Privileges(), newTokenVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.Privileges(),
	}, nil
}

func (s *authService) ChangePassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	return s.setPassword(user, newPassword)
}

// ResetPassword is the operator path (bookctl); it skips the old password check.
func (s *authService) ResetPassword(email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	return s.setPassword(user, newPassword)
}

func (s *authService) setPassword(user *model.User, password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	// Sesi lama tidak berlaku lagi
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	// 1. Validate JWT token
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// 2. Find user by ID from token claims
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 3. Check if user is still active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Strict session (TokenVersion)
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	// 5. Inactivity; LastSeenAt kosong dianggap kedaluwarsa
	if user.LastSeenAt == nil || s.now().Sub(*user.LastSeenAt) > sessionIdle {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.Privileges(),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	// 1. Update timestamp di DB
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}

	// 2. Broadcast status "online" ke semua client
	go notify(s.publisher, events.Event{
		Type:   events.TypeUser,
		Action: "online",
		Data: map[string]interface{}{
			"user_id":      userID.String(),
			"last_seen_at": s.now(),
		},
	})
	return nil
}

// EnsureOwner creates the first OWNER account when email is not registered yet.
func (s *authService) EnsureOwner(email, password, name string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	user := &model.User{
		Email:    email,
		FullName: name,
		Role:     model.RoleOwner,
		IsActive: true,
	}
	if len(password) < 8 {
		return false, ErrWeakPassword
	}
	if err := user.SetPassword(password); err != nil {
		return false, err
	}
	user.Stamp("system")
	if err := s.userRepo.Create(user); err != nil {
		return false, err
	}
	return true, nil
}
