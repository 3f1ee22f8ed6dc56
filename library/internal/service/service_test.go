package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	mock_repository "github.com/Astemirdum/library-system/library/internal/repository/mocks"
	"github.com/Astemirdum/library-system/library/internal/service"
	"github.com/Astemirdum/library-system/pkg/auth"
	"github.com/Astemirdum/library-system/pkg/kafka"
)

var fixedNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type recordingEnqueuer struct {
	events []kafka.LibraryEvent
	err    error
}

func (e *recordingEnqueuer) Enqueue(_ string, v any) error {
	e.events = append(e.events, v.(kafka.LibraryEvent))
	return e.err
}

func asRole(role model.Role) context.Context {
	return auth.SetAuthContext(context.Background(), "jane", string(role))
}

func expectTx(repo *mock_repository.MockRepository) {
	repo.EXPECT().WithinTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		})
}

func newService(t *testing.T, repo *mock_repository.MockRepository, enq kafka.Enqueuer) *service.Service {
	t.Helper()
	return service.NewService(repo, enq, zap.NewNop(), service.WithClock(func() time.Time { return fixedNow }))
}

func memberFixture() model.Member {
	return model.Member{ID: 1, Name: "bob", Role: model.RoleNone, Record: model.CheckoutRecord{ID: 7, MemberID: 1}}
}

func bookFixture(available ...bool) model.Book {
	b := model.Book{ID: 3, ISBN: "978-3", Title: "Go", Author: "Pike", BorrowDuration: 14}
	for i, a := range available {
		b.Copies = append(b.Copies, model.BookCopy{ID: int64(i + 10), CopyUid: uuid.New(), BookID: 3, Available: a})
	}
	return b
}

func TestService_Checkout(t *testing.T) {
	type args struct {
		ctx      context.Context
		memberID int64
		isbn     string
	}
	tests := []struct {
		name    string
		args    args
		mock    func(t *testing.T, repo *mock_repository.MockRepository)
		wantErr error
		check   func(t *testing.T, m model.Member, enq *recordingEnqueuer)
	}{
		{
			name: "ok",
			args: args{ctx: asRole(model.RoleLibrarian), memberID: 1, isbn: "978-3"},
			mock: func(t *testing.T, repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
				repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(bookFixture(false, true, true), nil)
				repo.EXPECT().UpdateMember(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, m model.Member) (model.Member, error) {
						m.Record.Entries[0].ID = 99
						return m, nil
					})
				repo.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
						require.False(t, b.Copies[1].Available)
						require.Equal(t, int64(1), *b.Copies[1].MemberID)
						require.True(t, b.Copies[2].Available)
						return b, nil
					})
			},
			check: func(t *testing.T, m model.Member, enq *recordingEnqueuer) {
				require.Len(t, m.Record.Entries, 1)
				e := m.Record.Entries[0]
				require.Equal(t, int64(99), e.ID)
				require.Equal(t, int64(11), e.CopyID)
				require.Equal(t, fixedNow, e.CheckoutDate)
				require.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), e.DueDate)
				require.Zero(t, e.Fine)

				require.Len(t, enq.events, 1)
				require.Equal(t, kafka.EventBookCheckedOut, enq.events[0].Type)
				require.Equal(t, "jane", enq.events[0].UserName)
			},
		},
		{
			name:    "negative member id",
			args:    args{ctx: asRole(model.RoleLibrarian), memberID: -1, isbn: "978-3"},
			mock:    func(t *testing.T, repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "empty isbn",
			args:    args{ctx: asRole(model.RoleLibrarian), memberID: 1},
			mock:    func(t *testing.T, repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "validation wins over missing session",
			args:    args{ctx: context.Background(), memberID: -1, isbn: "978-3"},
			mock:    func(t *testing.T, repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "no session",
			args:    args{ctx: context.Background(), memberID: 1, isbn: "978-3"},
			mock:    func(t *testing.T, repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrNoSession,
		},
		{
			name:    "admin can't checkout",
			args:    args{ctx: asRole(model.RoleAdmin), memberID: 1, isbn: "978-3"},
			mock:    func(t *testing.T, repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "member not found",
			args: args{ctx: asRole(model.RoleBoth), memberID: 5, isbn: "978-3"},
			mock: func(t *testing.T, repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(5)).Return(model.Member{}, errs.ErrMemberNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name: "book not found",
			args: args{ctx: asRole(model.RoleLibrarian), memberID: 1, isbn: "000"},
			mock: func(t *testing.T, repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
				repo.EXPECT().FindByISBN(gomock.Any(), "000").Return(model.Book{}, errs.ErrBookNotFound)
			},
			wantErr: errs.ErrBookNotFound,
		},
		{
			name: "no available copies",
			args: args{ctx: asRole(model.RoleLibrarian), memberID: 1, isbn: "978-3"},
			mock: func(t *testing.T, repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
				repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(bookFixture(false, false), nil)
			},
			wantErr: errs.ErrNoAvailableCopies,
		},
		{
			name: "storage failure is hidden",
			args: args{ctx: asRole(model.RoleLibrarian), memberID: 1, isbn: "978-3"},
			mock: func(t *testing.T, repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
				repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(bookFixture(true), nil)
				repo.EXPECT().UpdateMember(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, m model.Member) (model.Member, error) { return m, nil })
				repo.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).Return(model.Book{}, errors.New("conn reset"))
			},
			wantErr: errs.ErrPersistence,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			repo := mock_repository.NewMockRepository(ctrl)
			tt.mock(t, repo)
			enq := &recordingEnqueuer{}

			m, err := newService(t, repo, enq).Checkout(tt.args.ctx, tt.args.memberID, tt.args.isbn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, enq.events)
				return
			}
			require.NoError(t, err)
			tt.check(t, m, enq)
		})
	}
}

func TestService_Checkout_EnqueueFailureKeepsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_repository.NewMockRepository(ctrl)
	expectTx(repo)
	repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
	repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(bookFixture(true), nil)
	repo.EXPECT().UpdateMember(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m model.Member) (model.Member, error) { return m, nil })
	repo.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b model.Book) (model.Book, error) { return b, nil })

	enq := &recordingEnqueuer{err: errors.New("broker down")}
	m, err := newService(t, repo, enq).Checkout(asRole(model.RoleLibrarian), 1, "978-3")
	require.NoError(t, err)
	require.Len(t, m.Record.Entries, 1)
	require.Len(t, enq.events, 1)
}

func TestService_ViewCheckoutRecord(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		id      int64
		mock    func(repo *mock_repository.MockRepository)
		wantErr error
	}{
		{
			name: "ok",
			ctx:  asRole(model.RoleLibrarian),
			id:   1,
			mock: func(repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(1)).Return(memberFixture(), nil)
			},
		},
		{
			name:    "negative id",
			ctx:     asRole(model.RoleLibrarian),
			id:      -2,
			mock:    func(repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "admin forbidden",
			ctx:     asRole(model.RoleAdmin),
			id:      1,
			mock:    func(repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "not found",
			ctx:  asRole(model.RoleBoth),
			id:   8,
			mock: func(repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().GetMember(gomock.Any(), int64(8)).Return(model.Member{}, errs.ErrMemberNotFound)
			},
			wantErr: errs.ErrMemberNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			repo := mock_repository.NewMockRepository(ctrl)
			tt.mock(repo)

			m, err := newService(t, repo, kafka.NopEnqueuer{}).ViewCheckoutRecord(tt.ctx, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, memberFixture(), m)
		})
	}
}

func TestService_OverdueCopies(t *testing.T) {
	due := func(d time.Time) *time.Time { return &d }
	owner := int64(1)
	book := bookFixture(true, false, false, false)
	book.Copies[1].MemberID, book.Copies[1].DueDate = &owner, due(fixedNow.Add(-time.Hour))
	book.Copies[2].MemberID, book.Copies[2].DueDate = &owner, due(fixedNow.Add(time.Hour))
	book.Copies[3].MemberID, book.Copies[3].DueDate = &owner, due(fixedNow.AddDate(0, 0, -3))

	ctrl := gomock.NewController(t)
	repo := mock_repository.NewMockRepository(ctrl)
	expectTx(repo)
	repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(book, nil)

	got, err := newService(t, repo, kafka.NopEnqueuer{}).OverdueCopies(asRole(model.RoleLibrarian), "978-3")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(11), got[0].ID)
	require.Equal(t, int64(13), got[1].ID)

	_, err = newService(t, repo, kafka.NopEnqueuer{}).OverdueCopies(asRole(model.RoleNone), "978-3")
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = newService(t, repo, kafka.NopEnqueuer{}).OverdueCopies(asRole(model.RoleNone), "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_AddBook(t *testing.T) {
	valid := model.Book{ISBN: "978-1", Title: "TGPL", Author: "Donovan", BorrowDuration: 21}
	tests := []struct {
		name    string
		ctx     context.Context
		book    func() model.Book
		mock    func(repo *mock_repository.MockRepository)
		wantErr error
	}{
		{
			name: "ok",
			ctx:  asRole(model.RoleAdmin),
			book: func() model.Book {
				b := valid
				b.AddCopies(2)
				return b
			},
			mock: func(repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().AddBook(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
						b.ID = 1
						for i := range b.Copies {
							b.Copies[i].ID = int64(i + 1)
						}
						return b, nil
					})
			},
		},
		{
			name: "zero borrow duration",
			ctx:  asRole(model.RoleAdmin),
			book: func() model.Book {
				b := valid
				b.BorrowDuration = 0
				return b
			},
			mock:    func(repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name: "empty title",
			ctx:  asRole(model.RoleAdmin),
			book: func() model.Book {
				b := valid
				b.Title = ""
				return b
			},
			mock:    func(repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "librarian forbidden",
			ctx:     asRole(model.RoleLibrarian),
			book:    func() model.Book { return valid },
			mock:    func(repo *mock_repository.MockRepository) {},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "duplicate isbn",
			ctx:  asRole(model.RoleBoth),
			book: func() model.Book { return valid },
			mock: func(repo *mock_repository.MockRepository) {
				expectTx(repo)
				repo.EXPECT().AddBook(gomock.Any(), gomock.Any()).Return(model.Book{}, errs.ErrDuplicateISBN)
			},
			wantErr: errs.ErrConflict,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			repo := mock_repository.NewMockRepository(ctrl)
			tt.mock(repo)
			enq := &recordingEnqueuer{}

			b, err := newService(t, repo, enq).AddBook(tt.ctx, tt.book())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, enq.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(1), b.ID)
			require.Len(t, b.Copies, 2)
			require.Len(t, enq.events, 1)
			require.Equal(t, 2, enq.events[0].Count)
		})
	}
}

func TestService_AddCopies(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		expectTx(repo)
		repo.EXPECT().FindByISBN(gomock.Any(), "978-3").Return(bookFixture(true), nil)
		repo.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
				require.Len(t, b.Copies, 4)
				for _, c := range b.Copies[1:] {
					require.Zero(t, c.ID)
					require.True(t, c.Available)
					require.Nil(t, c.MemberID)
					require.Nil(t, c.DueDate)
				}
				return b, nil
			})

		b, err := newService(t, repo, kafka.NopEnqueuer{}).AddCopies(asRole(model.RoleAdmin), "978-3", 3)
		require.NoError(t, err)
		require.Len(t, b.Copies, 4)
	})

	t.Run("invalid count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		for _, n := range []int{0, -1} {
			_, err := newService(t, repo, kafka.NopEnqueuer{}).AddCopies(asRole(model.RoleAdmin), "978-3", n)
			require.ErrorIs(t, err, errs.ErrValidation)
		}
	})

	t.Run("librarian forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		_, err := newService(t, repo, kafka.NopEnqueuer{}).AddCopies(asRole(model.RoleLibrarian), "978-3", 1)
		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("unknown book", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		expectTx(repo)
		repo.EXPECT().FindByISBN(gomock.Any(), "nope").Return(model.Book{}, errs.ErrBookNotFound)
		_, err := newService(t, repo, kafka.NopEnqueuer{}).AddCopies(asRole(model.RoleBoth), "nope", 1)
		require.ErrorIs(t, err, errs.ErrBookNotFound)
	})
}

func TestService_RegisterMember(t *testing.T) {
	t.Run("ok defaults to none", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		expectTx(repo)
		repo.EXPECT().AddMember(gomock.Any(), model.Member{Name: "alice", Role: model.RoleNone}).
			Return(model.Member{ID: 4, Name: "alice", Role: model.RoleNone, Record: model.CheckoutRecord{ID: 2, MemberID: 4}}, nil)
		enq := &recordingEnqueuer{}

		m, err := newService(t, repo, enq).RegisterMember(asRole(model.RoleAdmin), "alice", "")
		require.NoError(t, err)
		require.Equal(t, int64(4), m.ID)
		require.Len(t, enq.events, 1)
		require.Equal(t, kafka.EventMemberRegistered, enq.events[0].Type)
	})

	t.Run("unknown role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		_, err := newService(t, repo, kafka.NopEnqueuer{}).RegisterMember(asRole(model.RoleAdmin), "alice", "root")
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("librarian forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_repository.NewMockRepository(ctrl)
		_, err := newService(t, repo, kafka.NopEnqueuer{}).RegisterMember(asRole(model.RoleLibrarian), "alice", model.RoleNone)
		require.ErrorIs(t, err, errs.ErrForbidden)
	})
}
