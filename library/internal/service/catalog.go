package service

import (
	"context"

	"github.com/Astemirdum/library-system/library/internal/access"
	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/pkg/kafka"
)

func validateBook(book model.Book) error {
	switch {
	case book.ISBN == "":
		return errs.Validation("book isbn can't be empty")
	case book.Title == "":
		return errs.Validation("book title can't be empty")
	case book.BorrowDuration <= 0:
		return errs.Validation("borrow duration must be positive")
	}
	for _, c := range book.Copies {
		if c.ID != 0 {
			return errs.Validation("new book can't contain stored copies")
		}
	}
	return nil
}

// AddBook stores a new book with its initial copies.
func (s *Service) AddBook(ctx context.Context, book model.Book) (model.Book, error) {
	if err := validateBook(book); err != nil {
		return model.Book{}, err
	}
	session, err := access.Require(ctx, access.AddBook)
	if err != nil {
		return model.Book{}, err
	}

	var added model.Book
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.AddBook(ctx, book)
		if err != nil {
			return err
		}
		added = b
		return nil
	})
	if err != nil {
		return model.Book{}, s.txError("AddBook", err)
	}

	s.publish(kafka.LibraryEvent{
		Type:     kafka.EventBookAdded,
		UserName: session.UserName,
		ISBN:     added.ISBN,
		Count:    len(added.Copies),
	})
	return added, nil
}

// AddCopies appends count available copies to the book.
func (s *Service) AddCopies(ctx context.Context, isbn string, count int) (model.Book, error) {
	if count <= 0 {
		return model.Book{}, errs.Validation("book copies can't be 0 or negative")
	}
	if isbn == "" {
		return model.Book{}, errs.Validation("book isbn can't be empty")
	}
	session, err := access.Require(ctx, access.AddCopies)
	if err != nil {
		return model.Book{}, err
	}

	var updated model.Book
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		book, err := s.repo.FindByISBN(ctx, isbn)
		if err != nil {
			return err
		}
		book.AddCopies(count)
		if updated, err = s.repo.UpdateBook(ctx, book); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return model.Book{}, s.txError("AddCopies", err)
	}

	s.publish(kafka.LibraryEvent{
		Type:     kafka.EventCopiesAdded,
		UserName: session.UserName,
		ISBN:     isbn,
		Count:    count,
	})
	return updated, nil
}

func (s *Service) GetBook(ctx context.Context, isbn string) (model.Book, error) {
	if isbn == "" {
		return model.Book{}, errs.Validation("book isbn can't be empty")
	}
	if _, err := access.Require(ctx, access.ViewBook); err != nil {
		return model.Book{}, err
	}

	var book model.Book
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.FindByISBN(ctx, isbn)
		if err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return model.Book{}, s.txError("GetBook", err)
	}
	return book, nil
}
