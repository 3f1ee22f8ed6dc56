package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/library/internal/repository"
	"github.com/Astemirdum/library-system/library/migrations"
	"github.com/Astemirdum/library-system/pkg/sqlite"
)

// goose keeps its settings in package state, so these tests do not run in parallel.
func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	db, err := sqlite.NewSQLiteDB(&sqlite.DB{Path: filepath.Join(t.TempDir(), "library.db")}, migrations.SQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := repository.NewRepository(db, zap.NewNop())
	require.NoError(t, err)
	return repo
}

func TestRepository_Member(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	m, err := repo.AddMember(ctx, model.Member{Name: "bob", Role: model.RoleLibrarian})
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.NotZero(t, m.Record.ID)
	require.Empty(t, m.Record.Entries)

	got, err := repo.GetMember(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Name)
	require.Equal(t, model.RoleLibrarian, got.Role)
	require.Equal(t, m.Record.ID, got.Record.ID)

	_, err = repo.GetMember(ctx, m.ID+100)
	require.ErrorIs(t, err, errs.ErrMemberNotFound)

	_, err = repo.UpdateMember(ctx, model.Member{ID: m.ID + 100, Name: "ghost"})
	require.ErrorIs(t, err, errs.ErrMemberNotFound)
}

func TestRepository_Book(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	book := model.Book{ISBN: "978-0134190440", Title: "The Go Programming Language", Author: "Donovan", BorrowDuration: 14}
	book.AddCopies(2)
	added, err := repo.AddBook(ctx, book)
	require.NoError(t, err)
	require.NotZero(t, added.ID)
	require.Len(t, added.Copies, 2)
	for _, c := range added.Copies {
		require.NotZero(t, c.ID)
		require.Equal(t, added.ID, c.BookID)
	}
	// the caller's copies stay unsaved
	for _, c := range book.Copies {
		require.Zero(t, c.ID)
		require.Zero(t, c.BookID)
	}

	_, err = repo.AddBook(ctx, book)
	require.ErrorIs(t, err, errs.ErrDuplicateISBN)

	got, err := repo.FindByISBN(ctx, book.ISBN)
	require.NoError(t, err)
	require.Equal(t, added.Copies[0].CopyUid, got.Copies[0].CopyUid)
	require.True(t, got.Copies[1].Available)

	got.AddCopies(1)
	updated, err := repo.UpdateBook(ctx, got)
	require.NoError(t, err)
	require.Len(t, updated.Copies, 3)
	require.NotZero(t, updated.Copies[2].ID)
	require.Zero(t, got.Copies[2].ID)

	_, err = repo.FindByISBN(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestRepository_CheckoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	member, err := repo.AddMember(ctx, model.Member{Name: "alice"})
	require.NoError(t, err)
	book := model.Book{ISBN: "978-1", Title: "SICP", BorrowDuration: 7}
	book.AddCopies(1)
	book, err = repo.AddBook(ctx, book)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	err = repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := model.Checkout(&member, &book, now); err != nil {
			return err
		}
		if _, err := repo.UpdateMember(ctx, member); err != nil {
			return err
		}
		_, err := repo.UpdateBook(ctx, book)
		return err
	})
	require.NoError(t, err)
	require.Zero(t, member.Record.Entries[0].ID)

	got, err := repo.GetMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, got.Record.Entries, 1)
	require.NotZero(t, got.Record.Entries[0].ID)
	require.True(t, got.Record.Entries[0].DueDate.Equal(now.AddDate(0, 0, 7)))

	b, err := repo.FindByISBN(ctx, "978-1")
	require.NoError(t, err)
	require.False(t, b.Copies[0].Available)
	require.Equal(t, member.ID, *b.Copies[0].MemberID)
}

func TestRepository_WithinTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	boom := errors.New("boom")

	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AddMember(ctx, model.Member{Name: "temp"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetMember(ctx, 1)
	require.ErrorIs(t, err, errs.ErrMemberNotFound)
}
