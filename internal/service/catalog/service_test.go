package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	pkgauth "github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, h http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewService(zap.NewExample().Named("test"), config.Config{
		API: config.API{BaseURL: srv.URL, Timeout: time.Second},
	})
}

func TestService_ListBooks(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/books", r.URL.Path)
		require.Equal(t, pkgauth.Bearer+"tok", r.Header.Get(pkgauth.AuthorizationHeader))
		_ = json.NewEncoder(w).Encode(model.BooksResponse{Books: []model.Book{
			{ID: 1, Title: "Dune", Author: "Herbert", TotalCopies: 3, AvailableCopies: 2},
		}})
	}))

	books, code, err := svc.ListBooks(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, books, 1)
	require.Equal(t, "Dune", books[0].Title)
}

func TestService_Borrow(t *testing.T) {
	due := model.Date{Time: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)}

	t.Run("created", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/books/7/borrow", r.URL.Path)
			var req model.BorrowRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "2024-05-20", req.DueDate.Format(time.DateOnly))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(model.Loan{
				TransactionID: 42, BookID: 7, Status: model.LoanBorrowed,
			})
		}))

		loan, code, err := svc.Borrow(context.Background(), "tok", 7, model.BorrowRequest{DueDate: due})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, code)
		require.Equal(t, 42, loan.TransactionID)
	})

	t.Run("conflict body is not decoded", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"no copies available"}`))
		}))

		loan, code, err := svc.Borrow(context.Background(), "tok", 7, model.BorrowRequest{DueDate: due})
		require.NoError(t, err)
		require.Equal(t, http.StatusConflict, code)
		require.Zero(t, loan.TransactionID)
	})
}

func TestService_Return(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/42/return", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.ReturnResponse{Success: true, Message: "book returned"})
	}))

	out, code, err := svc.Return(context.Background(), "tok", 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.True(t, out.Success)
}

func TestService_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	svc := NewService(zap.NewExample().Named("test"), config.Config{
		API: config.API{BaseURL: srv.URL, Timeout: time.Second},
	})

	_, code, err := svc.ListBooks(context.Background(), "tok")
	require.Error(t, err)
	require.Zero(t, code)
}
