package session

import (
	"context"

	"github.com/bookworm-app/bookworm/internal/credstore"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/internal/service/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go -package=mocks

var (
	_ AuthService     = (*auth.Service)(nil)
	_ CredentialStore = (*credstore.Store)(nil)
)

type AuthService interface {
	Login(ctx context.Context, request model.LoginRequest) (model.LoginResponse, int, error)
	Register(ctx context.Context, request model.RegisterRequest) (int, error)
	Logout(ctx context.Context, token string) (int, error)
	Me(ctx context.Context, token string) (model.Identity, int, error)
}

type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}
