package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a back-office staff account.
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string     `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	Role         string     `gorm:"type:varchar(20);not null" json:"role" validate:"required,oneof=OWNER ADMIN CASHIER"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255)" json:"-"` // For single session enforcement
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (u *User) Privileges() []string {
	return RolePrivileges[u.Role]
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	Privileges []string   `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		LastSeenAt: u.LastSeenAt,
		Privileges: u.Privileges(),
	}
}
