package cli

import (
	"context"
	"net/http"
	"testing"

	"github.com/bookworm-app/bookworm/internal/errs"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/internal/session"
	"github.com/bookworm-app/bookworm/internal/session/mocks"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthedApp(t *testing.T) *App {
	t.Helper()
	ctrl := gomock.NewController(t)
	authSvc := mocks.NewMockAuthService(ctrl)
	creds := mocks.NewMockCredentialStore(ctrl)

	creds.EXPECT().Load().Return("tok", nil)
	creds.EXPECT().Clear().Return(nil).AnyTimes()
	authSvc.EXPECT().Me(gomock.Any(), "tok").
		Return(model.Identity{ID: 1, Name: "root", Email: "root@example.com", Role: model.RoleAdmin}, http.StatusOK, nil)

	log := zap.NewExample().Named("test")
	sess := session.NewStore(authSvc, creds, log)
	sess.Restore(context.Background())
	require.Equal(t, session.StateAuthenticated, sess.State())

	return &App{log: log, session: sess}
}

func TestApp_AdminErr(t *testing.T) {
	t.Run("success maps to nil", func(t *testing.T) {
		a := newAuthedApp(t)
		require.NoError(t, a.adminErr(http.StatusOK, nil))
		require.Equal(t, session.StateAuthenticated, a.session.State())
	})

	t.Run("backend status surfaces through the taxonomy", func(t *testing.T) {
		a := newAuthedApp(t)

		require.ErrorIs(t, a.adminErr(http.StatusNotFound, nil), errs.ErrNotFound)
		require.ErrorIs(t, a.adminErr(http.StatusInternalServerError, nil), errs.ErrNetwork)
		// non-auth failures leave the session alone
		require.Equal(t, session.StateAuthenticated, a.session.State())
	})

	t.Run("auth failure expires the session", func(t *testing.T) {
		a := newAuthedApp(t)

		require.ErrorIs(t, a.adminErr(http.StatusUnauthorized, nil), errs.ErrAuth)
		require.Equal(t, session.StateAnonymous, a.session.State())
		require.Empty(t, a.session.Token())
	})

	t.Run("transport failure wraps as network error", func(t *testing.T) {
		a := newAuthedApp(t)

		err := a.adminErr(0, errors.New("connection refused"))
		require.ErrorIs(t, err, errs.ErrNetwork)
		require.Equal(t, session.StateAuthenticated, a.session.State())
	})
}
