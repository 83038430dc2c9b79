package state

import (
	"context"

	"github.com/Astemirdum/book-manager/bookui/internal/model"
	"github.com/Astemirdum/book-manager/bookui/internal/service/books"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var _ BookService = (*books.Service)(nil)

type BookService interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) error
	UpdateBook(ctx context.Context, book model.Book) error
	DeleteBook(ctx context.Context, id model.ID) error
}

// Confirmer answers the blocking yes/no prompt shown before a delete.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}
