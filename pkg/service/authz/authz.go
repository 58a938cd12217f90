// Package authz provides a static Authorizer backed by a configured user table
package authz

import (
	"context"

	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// User is one entry of the user table
type User struct {
	ID          string
	Name        string
	Admin       bool
	Staff       bool
	Permissions []types.Permission
}

type Static struct {
	users map[string]*User
}

var _ interfaces.Authorizer = &Static{}

// NewStatic builds an Authorizer from users. A later entry with the same ID
// replaces an earlier one.
func NewStatic(users []User) *Static {
	s := &Static{users: make(map[string]*User, len(users))}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *Static) Lookup(ctx context.Context, actorID string) (*model.Actor, error) {
	u, ok := s.users[actorID]
	if !ok || actorID == "" {
		return nil, nil
	}
	return &model.Actor{ID: u.ID, Name: u.Name}, nil
}

func (s *Static) IsAdministrator(ctx context.Context, actor *model.Actor) bool {
	u := s.user(actor)
	return u != nil && u.Admin
}

// IsStaff reports staff membership. Administrators are always staff.
func (s *Static) IsStaff(ctx context.Context, actor *model.Actor) bool {
	u := s.user(actor)
	return u != nil && (u.Staff || u.Admin)
}

func (s *Static) HasPermission(ctx context.Context, actor *model.Actor, perm types.Permission) bool {
	u := s.user(actor)
	if u == nil {
		return false
	}
	if u.Admin {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func (s *Static) user(actor *model.Actor) *User {
	if actor == nil {
		return nil
	}
	return s.users[actor.ID]
}
