package repository

import (
	"context"
	"database/sql"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
)

var bookCopyColumns = []string{"id", "copy_uid", "book_id", "available", "due_date", "member_id"}

// FindByISBN loads the book with its copies in storage order.
func (r *repository) FindByISBN(ctx context.Context, isbn string) (model.Book, error) {
	query, args, err := r.qb.Select("id", "isbn", "title", "author", "borrow_duration").
		From(booksTableName).
		Where(sq.Eq{"isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := sqlx.GetContext(ctx, r.ext(ctx), &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		r.log.Error("FindByISBN", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, errors.Wrap(err, "FindByISBN")
	}

	query, args, err = r.qb.Select(bookCopyColumns...).
		From(bookCopiesTableName).
		Where(sq.Eq{"book_id": book.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	copies := make([]model.BookCopy, 0)
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &copies, query, args...); err != nil {
		return model.Book{}, errors.Wrap(err, "select book copies")
	}
	book.Copies = copies
	return book, nil
}

func (r *repository) AddBook(ctx context.Context, book model.Book) (model.Book, error) {
	book.Copies = slices.Clone(book.Copies)
	query, args, err := r.qb.Insert(booksTableName).
		Columns("isbn", "title", "author", "borrow_duration").
		Values(book.ISBN, book.Title, book.Author, book.BorrowDuration).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &book.ID, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		r.log.Error("AddBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, errors.Wrap(err, "AddBook")
	}

	if err := r.saveCopies(ctx, &book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

// UpdateBook persists the book fields, inserts new copies (zero ID) and
// writes the circulation state of the existing ones.
func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	book.Copies = slices.Clone(book.Copies)
	query, args, err := r.qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Set("borrow_duration", book.BorrowDuration).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	res, err := r.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "UpdateBook")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Book{}, errs.ErrBookNotFound
	}

	if err := r.saveCopies(ctx, &book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) saveCopies(ctx context.Context, book *model.Book) error {
	if book.Copies == nil {
		book.Copies = []model.BookCopy{}
	}
	for i := range book.Copies {
		c := &book.Copies[i]
		c.BookID = book.ID
		if c.ID != 0 {
			if err := r.updateCopy(ctx, *c); err != nil {
				return err
			}
			continue
		}
		if c.CopyUid == uuid.Nil {
			c.CopyUid = uuid.New()
		}
		query, args, err := r.qb.Insert(bookCopiesTableName).
			Columns(bookCopyColumns[1:]...).
			Values(c.CopyUid, c.BookID, c.Available, c.DueDate, c.MemberID).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		if err := sqlx.GetContext(ctx, r.ext(ctx), &c.ID, query, args...); err != nil {
			r.log.Error("insert book copy", zap.String("q", query), zap.Any("args", args))
			return errors.Wrap(err, "insert book copy")
		}
	}
	return nil
}

func (r *repository) updateCopy(ctx context.Context, c model.BookCopy) error {
	query, args, err := r.qb.Update(bookCopiesTableName).
		Set("available", c.Available).
		Set("due_date", c.DueDate).
		Set("member_id", c.MemberID).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "update book copy")
	}
	return nil
}
