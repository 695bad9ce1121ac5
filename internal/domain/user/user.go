package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCreator Role = "creator"
	RoleViewer  Role = "viewer"
)

var (
	ErrInvalidEmail = errors.New("email is invalid")
	ErrNameRequired = errors.New("name is required")
	ErrInvalidRole  = errors.New("role must be 'creator' or 'viewer'")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCreator, RoleViewer:
		return Role(s), nil
	case "":
		return RoleViewer, nil
	}
	return "", ErrInvalidRole
}

func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	if u.Name == "" {
		return ErrNameRequired
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}

// UniqueIDs drops nil and repeated ids, keeping first-seen order.
func UniqueIDs(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type Repository interface {
	Save(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByIDs skips unknown ids instead of failing.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}

// ResolveAll loads each distinct referenced user once. Unknown ids are absent from the map.
func ResolveAll(ctx context.Context, repo Repository, ids ...uuid.UUID) (map[uuid.UUID]*User, error) {
	unique := UniqueIDs(ids...)
	if len(unique) == 0 {
		return map[uuid.UUID]*User{}, nil
	}
	return repo.FindByIDs(ctx, unique)
}
