package model

import (
	"time"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/google/uuid"
)

func NewBookCopy(bookID int64) BookCopy {
	return BookCopy{
		CopyUid:   uuid.New(),
		BookID:    bookID,
		Available: true,
	}
}

func (c BookCopy) CheckedOut() bool {
	return !c.Available && c.MemberID != nil && c.DueDate != nil
}

// Overdue reports whether the copy is on loan past its due date.
func (c BookCopy) Overdue(now time.Time) bool {
	return !c.Available && c.DueDate != nil && c.DueDate.Before(now)
}

// DueDate adds whole calendar days, so a 14 day loan taken on Jan 1 is due
// on Jan 15 at the same wall-clock time.
func DueDate(checkoutDate time.Time, borrowDays int) time.Time {
	return checkoutDate.AddDate(0, 0, borrowDays)
}

// AddCopies appends n available copies without a borrower.
func (b *Book) AddCopies(n int) {
	for i := 0; i < n; i++ {
		b.Copies = append(b.Copies, NewBookCopy(b.ID))
	}
}

func (b *Book) OverdueCopies(now time.Time) []BookCopy {
	overdue := make([]BookCopy, 0)
	for _, c := range b.Copies {
		if c.Overdue(now) {
			overdue = append(overdue, c)
		}
	}
	return overdue
}

// Checkout lends the first available copy of book, in stored order, to
// member and appends the loan to the member's record.
func Checkout(member *Member, book *Book, now time.Time) (CheckoutEntry, error) {
	idx := -1
	for i := range book.Copies {
		if book.Copies[i].Available {
			idx = i
			break
		}
	}
	if idx < 0 {
		return CheckoutEntry{}, errs.ErrNoAvailableCopies
	}

	due := DueDate(now, book.BorrowDuration)
	memberID := member.ID
	c := &book.Copies[idx]
	c.Available = false
	c.MemberID = &memberID
	c.DueDate = &due

	entry := CheckoutEntry{
		EntryUid:     uuid.New(),
		RecordID:     member.Record.ID,
		CopyID:       c.ID,
		CheckoutDate: now,
		DueDate:      due,
		Fine:         0,
	}
	member.Record.Entries = append(member.Record.Entries, entry)
	return entry, nil
}
