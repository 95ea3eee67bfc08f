package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	pkgauth "github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/bookworm-app/bookworm/pkg/circuit_breaker"
	"github.com/labstack/echo/v4"

	"go.uber.org/zap"
)

// Service is the REST client for the catalog and lending endpoints.
type Service struct {
	log    *zap.Logger
	client *http.Client
	cfg    config.API
	cb     circuit_breaker.CircuitBreaker
}

func NewService(log *zap.Logger, cfg config.Config) *Service {
	return &Service{
		log:    log,
		client: &http.Client{Timeout: cfg.API.Timeout},
		cfg:    cfg.API,
		cb:     circuit_breaker.New(10, 5*time.Second, 0.5, 3),
	}
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

func (s *Service) ListBooks(ctx context.Context, token string) ([]model.Book, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/books", s.cfg.BaseURL), http.NoBody)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var out model.BooksResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, http.StatusBadRequest, err
		}
	}
	return out.Books, resp.StatusCode, nil
}

func (s *Service) Borrow(ctx context.Context, token string, bookID int, request model.BorrowRequest) (model.Loan, int, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(request); err != nil {
		return model.Loan{}, http.StatusBadRequest, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/books/%d/borrow", s.cfg.BaseURL, bookID), b)
	if err != nil {
		return model.Loan{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Loan{}, 0, err
	}
	defer resp.Body.Close()

	var loan model.Loan
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&loan); err != nil {
			return model.Loan{}, http.StatusBadRequest, err
		}
	}
	return loan, resp.StatusCode, nil
}

func (s *Service) Borrowed(ctx context.Context, token string) ([]model.Loan, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/user/borrowed-books", s.cfg.BaseURL), http.NoBody)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var out model.BorrowedResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, http.StatusBadRequest, err
		}
	}
	return out.Books, resp.StatusCode, nil
}

func (s *Service) Return(ctx context.Context, token string, transactionID int) (model.ReturnResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/transactions/%d/return", s.cfg.BaseURL, transactionID), http.NoBody)
	if err != nil {
		return model.ReturnResponse{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.ReturnResponse{}, 0, err
	}
	defer resp.Body.Close()

	var out model.ReturnResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return model.ReturnResponse{}, http.StatusBadRequest, err
		}
	}
	return out, resp.StatusCode, nil
}
