package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleParent  UserRole = "parent"
	UserRoleAdmin   UserRole = "admin"
)

// ParseUserRole validates a self-registerable role. Admin accounts are
// provisioned out of band, never through registration.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case UserRoleStudent, UserRoleParent:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown user role %q", s)
}

// User carries the account fields the entitlement engine needs: identity
// for actor attribution and the bidirectional parent<->child link sets.
// Invariant: child in parent.Children <=> parent in child.Parents; both
// sides are written in the same transaction.
type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Parents      []uuid.UUID
	Children     []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasChild reports whether childID is already linked under this user.
func (u *User) HasChild(childID uuid.UUID) bool {
	for _, id := range u.Children {
		if id == childID {
			return true
		}
	}
	return false
}

// HasParent reports whether parentID is already linked above this user.
func (u *User) HasParent(parentID uuid.UUID) bool {
	for _, id := range u.Parents {
		if id == parentID {
			return true
		}
	}
	return false
}

func (u *User) Actor(context string) ActorProfile {
	return ActorProfile{
		UserId:  u.Id,
		Role:    string(u.Role),
		Name:    u.FullName,
		Email:   u.Email,
		Context: context,
	}
}
