package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleNone      Role = "NONE"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
	RoleBoth      Role = "BOTH"
)

// ParseRole maps unknown or empty values to RoleNone.
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleLibrarian, RoleAdmin, RoleBoth:
		return r
	default:
		return RoleNone
	}
}

type Member struct {
	ID     int64          `json:"id" db:"id"`
	Name   string         `json:"name" db:"name"`
	Role   Role           `json:"role" db:"role"`
	Record CheckoutRecord `json:"checkoutRecord" db:"-"`
}

// CheckoutRecord is the loan ledger of a single member.
type CheckoutRecord struct {
	ID       int64           `json:"id" db:"id"`
	MemberID int64           `json:"memberId" db:"member_id"`
	Entries  []CheckoutEntry `json:"entries" db:"-"`
}

type CheckoutEntry struct {
	ID           int64     `json:"id" db:"id"`
	EntryUid     uuid.UUID `json:"entryUid" db:"entry_uid"`
	RecordID     int64     `json:"recordId" db:"record_id"`
	CopyID       int64     `json:"copyId" db:"copy_id"`
	CheckoutDate time.Time `json:"checkoutDate" db:"checkout_date"`
	DueDate      time.Time `json:"dueDate" db:"due_date"`
	Fine         int64     `json:"fine" db:"fine"`
}

type Book struct {
	ID             int64      `json:"id" db:"id"`
	ISBN           string     `json:"isbn" db:"isbn"`
	Title          string     `json:"title" db:"title"`
	Author         string     `json:"author" db:"author"`
	BorrowDuration int        `json:"borrowDuration" db:"borrow_duration"`
	Copies         []BookCopy `json:"copies" db:"-"`
}

// BookCopy is checked out iff it is unavailable and carries both a member
// and a due date.
type BookCopy struct {
	ID        int64      `json:"id" db:"id"`
	CopyUid   uuid.UUID  `json:"copyUid" db:"copy_uid"`
	BookID    int64      `json:"bookId" db:"book_id"`
	Available bool       `json:"available" db:"available"`
	DueDate   *time.Time `json:"dueDate,omitempty" db:"due_date"`
	MemberID  *int64     `json:"memberId,omitempty" db:"member_id"`
}

type CreateBookRequest struct {
	ISBN           string `json:"isbn" validate:"required"`
	Title          string `json:"title" validate:"required"`
	Author         string `json:"author"`
	BorrowDuration int    `json:"borrowDuration" validate:"gt=0"`
	Copies         int    `json:"copies" validate:"gte=0"`
}

type AddCopiesRequest struct {
	Count int `json:"count" validate:"gt=0"`
}

type CheckoutRequest struct {
	ISBN string `json:"isbn" validate:"required"`
}

type RegisterMemberRequest struct {
	Name string `json:"name" validate:"required"`
	Role Role   `json:"role" validate:"omitempty,oneof=NONE LIBRARIAN ADMIN BOTH"`
}
