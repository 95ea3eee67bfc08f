package lending_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bookworm-app/bookworm/internal/errs"
	"github.com/bookworm-app/bookworm/internal/lending"
	"github.com/bookworm-app/bookworm/internal/lending/mocks"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/pkg/circuit_breaker"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWorkflow(t *testing.T) (*lending.Workflow, *mocks.MockCatalogService, *mocks.MockSessionSource) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	cat := mocks.NewMockCatalogService(c)
	sess := mocks.NewMockSessionSource(c)
	cat.EXPECT().CB().Return(circuit_breaker.New(100, time.Second, 0.99, 1)).AnyTimes()
	sess.EXPECT().Token().Return("tok").AnyTimes()
	log := zap.NewExample().Named("test")
	return lending.New(cat, sess, log), cat, sess
}

func TestListAvailable(t *testing.T) {
	t.Parallel()
	books := []model.Book{
		{ID: 1, Title: "In stock", AvailableCopies: 2, TotalCopies: 3},
		{ID: 2, Title: "All out", AvailableCopies: 0, TotalCopies: 1},
		{ID: 3, Title: "Last copy", AvailableCopies: 1, TotalCopies: 1},
	}

	got := lending.ListAvailable(books)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].ID)
	require.Equal(t, 3, got[1].ID)

	// Recomputed from the latest cache on every call.
	books[0].AvailableCopies = 0
	require.Len(t, lending.ListAvailable(books), 1)
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	var tests = []struct {
		name string
		loan model.Loan
		want bool
	}{
		{name: "borrowed past due", loan: model.Loan{Status: model.LoanBorrowed, DueDate: yesterday}, want: true},
		{name: "borrowed not yet due", loan: model.Loan{Status: model.LoanBorrowed, DueDate: tomorrow}, want: false},
		{name: "returned past due", loan: model.Loan{Status: model.LoanReturned, DueDate: yesterday}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, lending.IsOverdue(tt.loan, now))
		})
	}
}

func TestWorkflow_Borrow_Validation(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	var tests = []struct {
		name    string
		due     time.Time
		wantMsg string
	}{
		{name: "missing due date", due: time.Time{}, wantMsg: "due date required"},
		{name: "due date in past", due: now.Add(-time.Hour), wantMsg: "due date in past"},
		{name: "past maximum period", due: now.Add(8 * 24 * time.Hour), wantMsg: "exceeds maximum loan period"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// No expectations on the catalog: invalid input never reaches the network.
			w, _, _ := newWorkflow(t)

			_, _, err := w.Borrow(context.Background(), 1, tt.due, now)
			require.ErrorIs(t, err, errs.ErrValidation)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestWorkflow_Borrow(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(3 * 24 * time.Hour)

	t.Run("success trusts the backend record and refetches", func(t *testing.T) {
		t.Parallel()
		w, cat, _ := newWorkflow(t)
		loan := model.Loan{TransactionID: 42, BookID: 1, Status: model.LoanBorrowed, DueDate: due}
		cat.EXPECT().
			Borrow(gomock.Any(), "tok", 1, model.BorrowRequest{DueDate: model.Date{Time: due}}).
			Return(loan, http.StatusCreated, nil)
		cat.EXPECT().ListBooks(gomock.Any(), "tok").Return([]model.Book{{ID: 1, AvailableCopies: 0}}, http.StatusOK, nil)
		cat.EXPECT().Borrowed(gomock.Any(), "tok").Return([]model.Loan{loan}, http.StatusOK, nil)

		got, snap, err := w.Borrow(context.Background(), 1, due, now)
		require.NoError(t, err)
		require.Equal(t, loan, got)
		require.Len(t, snap.Loans, 1)
		// availableCopies comes back from the backend, never decremented locally.
		require.Equal(t, 0, snap.Books[0].AvailableCopies)
	})

	t.Run("last copy raced away", func(t *testing.T) {
		t.Parallel()
		w, cat, _ := newWorkflow(t)
		cat.EXPECT().
			Borrow(gomock.Any(), "tok", 1, gomock.Any()).
			Return(model.Loan{}, http.StatusConflict, nil)

		_, _, err := w.Borrow(context.Background(), 1, due, now)
		require.ErrorIs(t, err, errs.ErrConflict)
		require.NotErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("expired credential forces the session out", func(t *testing.T) {
		t.Parallel()
		w, cat, sess := newWorkflow(t)
		cat.EXPECT().
			Borrow(gomock.Any(), "tok", 1, gomock.Any()).
			Return(model.Loan{}, http.StatusUnauthorized, nil)
		sess.EXPECT().Expire()

		_, _, err := w.Borrow(context.Background(), 1, due, now)
		require.ErrorIs(t, err, errs.ErrAuth)
	})
}

func TestWorkflow_Return(t *testing.T) {
	t.Parallel()

	t.Run("confirmed return refetches both lists", func(t *testing.T) {
		t.Parallel()
		w, cat, _ := newWorkflow(t)
		cat.EXPECT().
			Return(gomock.Any(), "tok", 42).
			Return(model.ReturnResponse{Success: true}, http.StatusOK, nil)
		cat.EXPECT().ListBooks(gomock.Any(), "tok").Return([]model.Book{{ID: 1, AvailableCopies: 1}}, http.StatusOK, nil)
		cat.EXPECT().Borrowed(gomock.Any(), "tok").Return(nil, http.StatusOK, nil)

		snap, err := w.Return(context.Background(), 42)
		require.NoError(t, err)
		require.Equal(t, 1, snap.Books[0].AvailableCopies)
	})

	t.Run("second return of the same transaction is not found", func(t *testing.T) {
		t.Parallel()
		w, cat, _ := newWorkflow(t)
		cat.EXPECT().
			Return(gomock.Any(), "tok", 42).
			Return(model.ReturnResponse{}, http.StatusNotFound, nil)

		_, err := w.Return(context.Background(), 42)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("transport failure is recoverable", func(t *testing.T) {
		t.Parallel()
		w, cat, _ := newWorkflow(t)
		cat.EXPECT().
			Return(gomock.Any(), "tok", 42).
			Return(model.ReturnResponse{}, 0, context.DeadlineExceeded)

		_, err := w.Return(context.Background(), 42)
		require.ErrorIs(t, err, errs.ErrNetwork)
	})
}
