package access

import (
	"context"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/pkg/auth"
)

type Permission uint16

const (
	Checkout Permission = 1 << iota
	ViewCheckoutRecord
	ViewOverdueCopies
	ViewBook
	AddBook
	AddCopies
	RegisterMember
)

// Set is a bitset of permissions.
type Set Permission

func NewSet(perms ...Permission) Set {
	var s Set
	for _, p := range perms {
		s |= Set(p)
	}
	return s
}

func (s Set) Has(p Permission) bool {
	return p != 0 && Set(p)&s == Set(p)
}

func (s Set) Union(o Set) Set { return s | o }

var (
	librarian = NewSet(Checkout, ViewCheckoutRecord, ViewOverdueCopies, ViewBook)
	admin     = NewSet(AddBook, AddCopies, RegisterMember)

	rolePermissions = map[model.Role]Set{
		model.RoleLibrarian: librarian,
		model.RoleAdmin:     admin,
		model.RoleBoth:      librarian.Union(admin),
	}
)

// Permissions of a role; RoleNone and unknown roles get the empty set.
func Permissions(role model.Role) Set {
	return rolePermissions[role]
}

type Session struct {
	UserName string
	Role     model.Role
}

func (s Session) Can(p Permission) bool {
	return Permissions(s.Role).Has(p)
}

// FromContext reads the session set by the auth middleware.
func FromContext(ctx context.Context) (Session, bool) {
	a, err := auth.GetAuthContext(ctx)
	if err != nil {
		return Session{}, false
	}
	return Session{UserName: a.UserName, Role: model.ParseRole(a.Role)}, true
}

// Require returns the caller session when it holds p.
func Require(ctx context.Context, p Permission) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, errs.ErrNoSession
	}
	if !s.Can(p) {
		return s, errs.ErrForbidden
	}
	return s, nil
}
