package service

import (
	"context"

	"github.com/Astemirdum/library-system/library/internal/access"
	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/pkg/kafka"
)

// Checkout lends the first available copy of the book to the member and
// returns the member with the new ledger entry.
func (s *Service) Checkout(ctx context.Context, memberID int64, isbn string) (model.Member, error) {
	if memberID < 0 {
		return model.Member{}, errs.Validation("member id can't be negative")
	}
	if isbn == "" {
		return model.Member{}, errs.Validation("book isbn can't be empty")
	}
	session, err := access.Require(ctx, access.Checkout)
	if err != nil {
		return model.Member{}, err
	}

	var (
		member model.Member
		entry  model.CheckoutEntry
		lent   model.BookCopy
	)
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		book, err := s.repo.FindByISBN(ctx, isbn)
		if err != nil {
			return err
		}

		if entry, err = model.Checkout(&m, &book, s.now()); err != nil {
			return err
		}
		for _, c := range book.Copies {
			if c.ID == entry.CopyID {
				lent = c
				break
			}
		}

		if m, err = s.repo.UpdateMember(ctx, m); err != nil {
			return err
		}
		if _, err = s.repo.UpdateBook(ctx, book); err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return model.Member{}, s.txError("Checkout", err)
	}

	due := entry.DueDate
	s.publish(kafka.LibraryEvent{
		Type:      kafka.EventBookCheckedOut,
		Timestamp: entry.CheckoutDate,
		UserName:  session.UserName,
		MemberID:  member.ID,
		ISBN:      isbn,
		CopyUid:   lent.CopyUid.String(),
		DueDate:   &due,
	})
	return member, nil
}

// ViewCheckoutRecord returns the member, its ledger is member.Record.
func (s *Service) ViewCheckoutRecord(ctx context.Context, memberID int64) (model.Member, error) {
	if memberID < 0 {
		return model.Member{}, errs.Validation("member id can't be negative")
	}
	if _, err := access.Require(ctx, access.ViewCheckoutRecord); err != nil {
		return model.Member{}, err
	}

	var member model.Member
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return model.Member{}, s.txError("ViewCheckoutRecord", err)
	}
	return member, nil
}

// OverdueCopies lists copies of the book on loan past their due date.
func (s *Service) OverdueCopies(ctx context.Context, isbn string) ([]model.BookCopy, error) {
	if isbn == "" {
		return nil, errs.Validation("book isbn can't be empty")
	}
	if _, err := access.Require(ctx, access.ViewOverdueCopies); err != nil {
		return nil, err
	}

	var overdue []model.BookCopy
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		book, err := s.repo.FindByISBN(ctx, isbn)
		if err != nil {
			return err
		}
		overdue = book.OverdueCopies(s.now())
		return nil
	})
	if err != nil {
		return nil, s.txError("OverdueCopies", err)
	}
	return overdue, nil
}
