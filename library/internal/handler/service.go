package handler

import (
	"context"

	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	Checkout(ctx context.Context, memberID int64, isbn string) (model.Member, error)
	ViewCheckoutRecord(ctx context.Context, memberID int64) (model.Member, error)
	OverdueCopies(ctx context.Context, isbn string) ([]model.BookCopy, error)
	AddBook(ctx context.Context, book model.Book) (model.Book, error)
	AddCopies(ctx context.Context, isbn string, count int) (model.Book, error)
	GetBook(ctx context.Context, isbn string) (model.Book, error)
	RegisterMember(ctx context.Context, name string, role model.Role) (model.Member, error)
}

var _ LibraryService = (*service.Service)(nil)
