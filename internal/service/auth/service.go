package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	pkgauth "github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/labstack/echo/v4"

	"go.uber.org/zap"
)

// Service is the REST client for the backend auth endpoints.
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

func (s *Service) Login(ctx context.Context, request model.LoginRequest) (model.LoginResponse, int, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(request); err != nil {
		return model.LoginResponse{}, http.StatusBadRequest, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/auth/login", s.cfg.BaseURL), b)
	if err != nil {
		return model.LoginResponse{}, http.StatusBadRequest, err
	}
	req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.LoginResponse{}, 0, err
	}
	defer resp.Body.Close()

	var out model.LoginResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return model.LoginResponse{}, http.StatusBadRequest, err
		}
	}
	return out, resp.StatusCode, nil
}

func (s *Service) Register(ctx context.Context, request model.RegisterRequest) (int, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(request); err != nil {
		return http.StatusBadRequest, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/auth/register", s.cfg.BaseURL), b)
	if err != nil {
		return http.StatusBadRequest, err
	}
	req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (s *Service) Logout(ctx context.Context, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/auth/logout", s.cfg.BaseURL), http.NoBody)
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

func (s *Service) Me(ctx context.Context, token string) (model.Identity, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/auth/me", s.cfg.BaseURL), http.NoBody)
	if err != nil {
		return model.Identity{}, http.StatusBadRequest, err
	}
	req.Header.Set(pkgauth.AuthorizationHeader, pkgauth.Bearer+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Identity{}, 0, err
	}
	defer resp.Body.Close()

	var out model.MeResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return model.Identity{}, http.StatusBadRequest, err
		}
	}
	return out.User, resp.StatusCode, nil
}
