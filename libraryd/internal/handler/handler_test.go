package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/libraryd/internal/repository"
	"github.com/bookworm-app/bookworm/libraryd/internal/service"
	"github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	router *echo.Echo
	repo   *repository.Repository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewExample().Named("test")
	repo, err := repository.NewRepository(config.Database{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := service.NewService(log, repo)
	return &env{
		router: New(svc, log).NewRouter(),
		repo:   repo,
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(auth.AuthorizationHeader, auth.Bearer+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) register(t *testing.T, name, email, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func (e *env) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestHandler_Auth(t *testing.T) {
	e := newEnv(t)

	e.register(t, "ann", "ann@example.com", "secret1")

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{
		Name:                 "ann again",
		Email:                "ann@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Email:    "ann@example.com",
		Password: "wrong-pass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := e.login(t, "ann@example.com", "secret1")

	rec = e.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "ann@example.com", me.User.Email)
	require.Equal(t, model.RoleUser, me.User.Role)

	rec = e.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_BorrowReturn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	book, err := e.repo.CreateBook(ctx, model.BookInput{
		Title:       "Clean Architecture",
		Author:      "Martin",
		TotalCopies: 1,
	})
	require.NoError(t, err)

	e.register(t, "bob", "bob@example.com", "secret1")
	token := e.login(t, "bob@example.com", "secret1")

	rec := e.do(t, http.MethodGet, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var books model.BooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	require.Len(t, books.Books, 1)

	due := model.Date{Time: time.Now().Add(72 * time.Hour)}
	borrowPath := fmt.Sprintf("/api/v1/books/%d/borrow", book.ID)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{
		DueDate: model.Date{Time: time.Now().Add(30 * 24 * time.Hour)},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: due})
	require.Equal(t, http.StatusCreated, rec.Code)
	var loan model.Loan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loan))
	require.Equal(t, model.LoanBorrowed, loan.Status)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: due})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/user/borrowed-books", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var borrowed model.BorrowedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &borrowed))
	require.Len(t, borrowed.Books, 1)

	returnPath := fmt.Sprintf("/api/v1/transactions/%d/return", loan.TransactionID)
	rec = e.do(t, http.MethodPost, returnPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ret model.ReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret))
	require.True(t, ret.Success)

	rec = e.do(t, http.MethodPost, returnPath, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_BorrowDueWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	book, err := e.repo.CreateBook(ctx, model.BookInput{
		Title:       "The Practice of Programming",
		Author:      "Kernighan, Pike",
		TotalCopies: 4,
	})
	require.NoError(t, err)

	e.register(t, "dana", "dana@example.com", "secret1")
	token := e.login(t, "dana@example.com", "secret1")

	borrowPath := fmt.Sprintf("/api/v1/books/%d/borrow", book.ID)
	day := func(offset int) model.Date {
		return model.Date{Time: time.Now().AddDate(0, 0, offset)}
	}

	// the wire format is date-only, so the whole current day is a valid due date
	rec := e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: day(0)})
	require.Equal(t, http.StatusCreated, rec.Code)
	var loan model.Loan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loan))
	require.Equal(t, model.LoanBorrowed, loan.Status)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: day(7)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: day(-1)})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, borrowPath, token, model.BorrowRequest{DueDate: day(8)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Admin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = e.repo.CreateUser(ctx, "root", "root@example.com", string(hash), model.RoleAdmin)
	require.NoError(t, err)

	e.register(t, "carl", "carl@example.com", "secret1")
	userToken := e.login(t, "carl@example.com", "secret1")
	adminToken := e.login(t, "root@example.com", "admin-pass")

	rec := e.do(t, http.MethodGet, "/api/v1/admin/dashboard-stats", userToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/admin/books", adminToken, model.BookInput{
		Title:       "SRE Workbook",
		Author:      "Beyer",
		TotalCopies: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var book model.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))

	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/books/%d", book.ID), adminToken, model.BookInput{
		Title:       "The Site Reliability Workbook",
		Author:      "Beyer",
		TotalCopies: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/books?page=1&per_page=10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.Page[model.Book]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Meta.Total)
	require.Equal(t, "The Site Reliability Workbook", page.Data[0].Title)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/users?search=carl", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users model.Page[model.Identity]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Equal(t, 1, users.Meta.Total)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/dashboard-stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 2, stats.TotalUsers)

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/books/%d", book.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/books/%d", book.ID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
