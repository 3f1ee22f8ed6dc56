package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Transactor interface {
	// WithinTransaction runs fn in a transaction carried by the context it
	// receives. It commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MemberRepository interface {
	GetMember(ctx context.Context, id int64) (model.Member, error)
	AddMember(ctx context.Context, member model.Member) (model.Member, error)
	UpdateMember(ctx context.Context, member model.Member) (model.Member, error)
}

type BookRepository interface {
	FindByISBN(ctx context.Context, isbn string) (model.Book, error)
	AddBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
}

type Repository interface {
	Transactor
	MemberRepository
	BookRepository
}

type repository struct {
	db  *sqlx.DB
	qb  sq.StatementBuilderType
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

// NewRepository works on top of the "pgx" and "sqlite3" drivers.
func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	var qb sq.StatementBuilderType
	switch db.DriverName() {
	case "pgx", "postgres":
		qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case "sqlite3":
		qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	default:
		return nil, errors.Errorf("unsupported driver %q", db.DriverName())
	}
	return &repository{
		db:  db,
		qb:  qb,
		log: log.Named("repo"),
	}, nil
}

const (
	membersTableName         = `members`
	checkoutRecordsTableName = `checkout_records`
	checkoutEntriesTableName = `checkout_entries`
	booksTableName           = `books`
	bookCopiesTableName      = `book_copies`
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
