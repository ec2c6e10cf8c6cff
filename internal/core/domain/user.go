package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Role is the permission level attached to an account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

var (
	ErrUserExists     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidUser    = errors.New("invalid user")
	ErrInvalidRole    = errors.New("invalid role")
	ErrSeedInProgress = errors.New("seeding already in progress")
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole converts a stored role string back into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// User models an account persisted by the account store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username" validate:"required,max=64"`
	PasswordHash string    `json:"-" validate:"required"`
	Role         Role      `json:"role" validate:"required,oneof=ADMIN USER"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var validate = validator.New()

// Validate checks the invariants a user must satisfy before it is persisted.
func (u *User) Validate() error {
	if err := validate.Struct(u); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidUser, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return nil
}

// fieldError converts a single validation failure into a readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
