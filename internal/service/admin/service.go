package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	pkgauth "github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/labstack/echo/v4"

	"go.uber.org/zap"
)

// Service is the REST client for the admin-only paginated endpoints.
type Service struct {
	log    *zap.Logger
	client *http.Client
	cfg    config.API
}

func NewService(log *zap.Logger, cfg config.Config) *Service {
	return &Service{
		log:    log,
		client: &http.Client{Timeout: cfg.API.Timeout},
		cfg:    cfg.API,
	}
}

func pageValues(q model.PageQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func list[T any](ctx context.Context, s *Service, path string, token string, q model.PageQuery) (model.Page[T], int, error) {
	u := fmt.Sprintf("%s%s", s.cfg.BaseURL, path)
	if enc := pageValues(q).Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return model.Page[T]{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Page[T]{}, 0, err
	}
	defer resp.Body.Close()

	var page model.Page[T]
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return model.Page[T]{}, http.StatusBadRequest, err
		}
	}
	return page, resp.StatusCode, nil
}

func (s *Service) ListBooks(ctx context.Context, token string, q model.PageQuery) (model.Page[model.Book], int, error) {
	return list[model.Book](ctx, s, "/admin/books", token, q)
}

func (s *Service) ListUsers(ctx context.Context, token string, q model.PageQuery) (model.Page[model.Identity], int, error) {
	return list[model.Identity](ctx, s, "/admin/users", token, q)
}

func (s *Service) ListTransactions(ctx context.Context, token string, q model.PageQuery) (model.Page[model.Loan], int, error) {
	return list[model.Loan](ctx, s, "/admin/transactions", token, q)
}

func (s *Service) DashboardStats(ctx context.Context, token string) (model.DashboardStats, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/admin/dashboard-stats", s.cfg.BaseURL), http.NoBody)
	if err != nil {
		return model.DashboardStats{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.DashboardStats{}, 0, err
	}
	defer resp.Body.Close()

	var out model.DashboardStats
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return model.DashboardStats{}, http.StatusBadRequest, err
		}
	}
	return out, resp.StatusCode, nil
}

func (s *Service) CreateBook(ctx context.Context, token string, input model.BookInput) (model.Book, int, error) {
	return s.writeBook(ctx, http.MethodPost, fmt.Sprintf("%s/admin/books", s.cfg.BaseURL), token, input)
}

func (s *Service) UpdateBook(ctx context.Context, token string, id int, input model.BookInput) (model.Book, int, error) {
	return s.writeBook(ctx, http.MethodPut, fmt.Sprintf("%s/admin/books/%d", s.cfg.BaseURL, id), token, input)
}

func (s *Service) DeleteBook(ctx context.Context, token string, id int) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/admin/books/%d", s.cfg.BaseURL, id), http.NoBody)
	if err != nil {
		return http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (s *Service) writeBook(ctx context.Context, method, u, token string, input model.BookInput) (model.Book, int, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(input); err != nil {
		return model.Book{}, http.StatusBadRequest, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, b)
	if err != nil {
		return model.Book{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Book{}, 0, err
	}
	defer resp.Body.Close()

	var book model.Book
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
			return model.Book{}, http.StatusBadRequest, err
		}
	}
	return book, resp.StatusCode, nil
}
