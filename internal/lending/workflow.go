// Package lending enforces the borrow/return policy client-side as a first
// line of defense. The backend stays the authority: copy counts and loan
// status are shared across clients, so every mutating call is followed by a
// refetch instead of local arithmetic.
package lending

import (
	"context"
	"net/http"
	"time"

	"github.com/bookworm-app/bookworm/internal/errs"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxLoanPeriod bounds the requested due date.
const MaxLoanPeriod = 7 * 24 * time.Hour

type Workflow struct {
	log     *zap.Logger
	catalog CatalogService
	session SessionSource
}

func New(catalogSvc CatalogService, sess SessionSource, log *zap.Logger) *Workflow {
	return &Workflow{
		log:     log,
		catalog: catalogSvc,
		session: sess,
	}
}

// ListAvailable filters the latest fetched catalog down to titles with
// copies left. Pure and recomputed on every call, never memoized.
func ListAvailable(books []model.Book) []model.Book {
	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if b.AvailableCopies > 0 {
			out = append(out, b)
		}
	}
	return out
}

// IsOverdue reports whether a loan is past due. Recomputed on read, never a
// stored flag; returned loans are never overdue.
func IsOverdue(loan model.Loan, now time.Time) bool {
	return loan.Status == model.LoanBorrowed && loan.DueDate.Before(now)
}

// Snapshot is the post-write reconvergence state: both lists refetched from
// the backend.
type Snapshot struct {
	Books []model.Book
	Loans []model.Loan
}

func (w *Workflow) Books(ctx context.Context) ([]model.Book, error) {
	var (
		books []model.Book
		code  int
	)
	if err := w.catalog.CB().Call(func() error {
		var err error
		books, code, err = w.catalog.ListBooks(ctx, w.session.Token())
		return err
	}); err != nil {
		return nil, errs.Network(err)
	}
	if err := w.mapStatus(code, "list books"); err != nil {
		return nil, err
	}
	return books, nil
}

func (w *Workflow) Borrowed(ctx context.Context) ([]model.Loan, error) {
	var (
		loans []model.Loan
		code  int
	)
	if err := w.catalog.CB().Call(func() error {
		var err error
		loans, code, err = w.catalog.Borrowed(ctx, w.session.Token())
		return err
	}); err != nil {
		return nil, errs.Network(err)
	}
	if err := w.mapStatus(code, "list borrowed"); err != nil {
		return nil, err
	}
	return loans, nil
}

// Borrow validates the requested due date strictly before any network I/O,
// then issues the borrow request. A 409 means another borrower took the last
// copy first; that is an expected outcome, distinguishable from bad input.
func (w *Workflow) Borrow(ctx context.Context, bookID int, due, now time.Time) (model.Loan, Snapshot, error) {
	if due.IsZero() {
		return model.Loan{}, Snapshot{}, errs.Validationf("due date required")
	}
	if due.Before(now) {
		return model.Loan{}, Snapshot{}, errs.Validationf("due date in past")
	}
	if due.After(now.Add(MaxLoanPeriod)) {
		return model.Loan{}, Snapshot{}, errs.Validationf("exceeds maximum loan period")
	}

	var (
		loan model.Loan
		code int
	)
	if err := w.catalog.CB().Call(func() error {
		var err error
		loan, code, err = w.catalog.Borrow(ctx, w.session.Token(), bookID, model.BorrowRequest{
			DueDate: model.Date{Time: due},
		})
		return err
	}); err != nil {
		return model.Loan{}, Snapshot{}, errs.Network(err)
	}
	if code == http.StatusConflict {
		return model.Loan{}, Snapshot{}, errors.Wrap(errs.ErrConflict, "no copies available")
	}
	if err := w.mapStatus(code, "borrow"); err != nil {
		return model.Loan{}, Snapshot{}, err
	}

	snap, err := w.Refresh(ctx)
	if err != nil {
		w.log.Warn("refresh after borrow", zap.Error(err))
	}
	return loan, snap, nil
}

// Return asks the backend to close the transaction. The local record flips
// to returned only once the backend confirms; a 404 (unknown or already
// returned transaction) surfaces as not-found without corrupting state.
func (w *Workflow) Return(ctx context.Context, transactionID int) (Snapshot, error) {
	var (
		res  model.ReturnResponse
		code int
	)
	if err := w.catalog.CB().Call(func() error {
		var err error
		res, code, err = w.catalog.Return(ctx, w.session.Token(), transactionID)
		return err
	}); err != nil {
		return Snapshot{}, errs.Network(err)
	}
	if code == http.StatusNotFound {
		return Snapshot{}, errors.Wrap(errs.ErrNotFound, "transaction not found")
	}
	if err := w.mapStatus(code, "return"); err != nil {
		return Snapshot{}, err
	}
	if !res.Success {
		return Snapshot{}, errors.Wrap(errs.ErrNetwork, "return not confirmed")
	}

	snap, err := w.Refresh(ctx)
	if err != nil {
		w.log.Warn("refresh after return", zap.Error(err))
	}
	return snap, nil
}

// Refresh refetches the catalog and the loan list in parallel.
func (w *Workflow) Refresh(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		books, err := w.Books(ctx)
		if err != nil {
			return err
		}
		snap.Books = books
		return nil
	})
	gg.Go(func() error {
		loans, err := w.Borrowed(ctx)
		if err != nil {
			return err
		}
		snap.Loans = loans
		return nil
	})
	if err := gg.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// mapStatus converts a backend status into the error taxonomy. A 401 means
// the credential died server-side, which forces the session out.
func (w *Workflow) mapStatus(code int, op string) error {
	err := errs.FromStatus(code, op)
	if errors.Is(err, errs.ErrAuth) {
		w.session.Expire()
	}
	return err
}
