package handler

import (
	"context"
	"time"

	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/libraryd/internal/service"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go -package=mocks

type LibraryService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Login(ctx context.Context, req model.LoginRequest) (string, error)

	Books(ctx context.Context) ([]model.Book, error)
	Borrow(ctx context.Context, userID, bookID int, due time.Time) (model.Loan, error)
	Return(ctx context.Context, transactionID int) error
	Borrowed(ctx context.Context, userID int) ([]model.Loan, error)

	BooksPage(ctx context.Context, q model.PageQuery) (model.Page[model.Book], error)
	UsersPage(ctx context.Context, q model.PageQuery) (model.Page[model.Identity], error)
	TransactionsPage(ctx context.Context, q model.PageQuery) (model.Page[model.Loan], error)
	Stats(ctx context.Context) (model.DashboardStats, error)
	CreateBook(ctx context.Context, input model.BookInput) (model.Book, error)
	UpdateBook(ctx context.Context, id int, input model.BookInput) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error
}

var _ LibraryService = (*service.Service)(nil)
