package user

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

// if a userId is taken already
var ErrAlreadyExists = errors.New("user already exists")

// user ids are client supplied and pattern restricted
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidID reports whether id matches the allowed userId shape.
func ValidID(id string) bool {
	return len(id) >= 1 && len(id) <= 100 && idPattern.MatchString(id)
}

type CreateUserRequest struct {
	UserID string `json:"userId" binding:"required,min=1,max=100,userid"`
	Name   string `json:"name" binding:"required,min=1,max=200"`
}

// Validate covers what binding tags cannot express: whitespace-only names.
func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name cannot be empty or whitespace only")
	}

	return nil
}

// NewFromCreateRequest builds a User from the incoming DTO.

func NewFromCreateRequest(req CreateUserRequest) User {
	now := time.Now().UTC()

	return User{
		ID:        req.UserID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
