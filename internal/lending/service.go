package lending

import (
	"context"

	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/internal/service/catalog"
	"github.com/bookworm-app/bookworm/internal/session"
	"github.com/bookworm-app/bookworm/pkg/circuit_breaker"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go -package=mocks

var (
	_ CatalogService = (*catalog.Service)(nil)
	_ SessionSource  = (*session.Store)(nil)
)

type CatalogService interface {
	ListBooks(ctx context.Context, token string) ([]model.Book, int, error)
	Borrow(ctx context.Context, token string, bookID int, request model.BorrowRequest) (model.Loan, int, error)
	Borrowed(ctx context.Context, token string) ([]model.Loan, int, error)
	Return(ctx context.Context, token string, transactionID int) (model.ReturnResponse, int, error)
	CB() circuit_breaker.CircuitBreaker
}

// SessionSource is the read side of the session store plus forced expiry.
// The credential itself is only ever written by the session store.
type SessionSource interface {
	Token() string
	Expire()
}
