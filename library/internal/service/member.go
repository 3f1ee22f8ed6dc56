package service

import (
	"context"

	"github.com/Astemirdum/library-system/library/internal/access"
	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/pkg/kafka"
)

// RegisterMember creates a member with an empty checkout record. An empty
// role registers a member without privileges.
func (s *Service) RegisterMember(ctx context.Context, name string, role model.Role) (model.Member, error) {
	if name == "" {
		return model.Member{}, errs.Validation("member name can't be empty")
	}
	if role == "" {
		role = model.RoleNone
	}
	if model.ParseRole(string(role)) != role {
		return model.Member{}, errs.Validation("unknown role " + string(role))
	}
	session, err := access.Require(ctx, access.RegisterMember)
	if err != nil {
		return model.Member{}, err
	}

	var member model.Member
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.AddMember(ctx, model.Member{Name: name, Role: role})
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return model.Member{}, s.txError("RegisterMember", err)
	}

	s.publish(kafka.LibraryEvent{
		Type:     kafka.EventMemberRegistered,
		UserName: session.UserName,
		MemberID: member.ID,
	})
	return member, nil
}
