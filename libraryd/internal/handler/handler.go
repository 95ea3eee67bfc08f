package handler

import (
	"net/http"
	"strconv"

	md "github.com/bookworm-app/bookworm/pkg/middleware"

	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/libraryd/internal/repository"
	"github.com/bookworm-app/bookworm/libraryd/internal/service"
	"github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/bookworm-app/bookworm/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	librarySvc LibraryService
	log        *zap.Logger
}

func New(librarySvc LibraryService, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", md.JwtAuthentication)
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)

	authed.GET("/books", h.Books)
	authed.POST("/books/:id/borrow", h.Borrow)
	authed.GET("/user/borrowed-books", h.Borrowed)
	authed.POST("/transactions/:id/return", h.Return)

	admin := authed.Group("/admin", md.AdminOnly)
	admin.GET("/books", h.AdminBooks)
	admin.POST("/books", h.AdminCreateBook)
	admin.PUT("/books/:id", h.AdminUpdateBook)
	admin.DELETE("/books/:id", h.AdminDeleteBook)
	admin.GET("/users", h.AdminUsers)
	admin.GET("/transactions", h.AdminTransactions)
	admin.GET("/dashboard-stats", h.AdminStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.librarySvc.Register(c.Request().Context(), req); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	token, err := h.librarySvc.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.LoginResponse{AccessToken: token})
}

// Logout exists so clients can report an explicit sign-out. Tokens are
// stateless, so there is nothing to revoke server-side.
func (h *Handler) Logout(c echo.Context) error {
	if claims, ok := auth.FromContext(c.Request().Context()); ok {
		h.log.Info("user logged out", zap.Int("user_id", claims.UserID))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	claims, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no identity")
	}
	return c.JSON(http.StatusOK, model.MeResponse{User: model.Identity{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}})
}

func (h *Handler) Books(c echo.Context) error {
	books, err := h.librarySvc.Books(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.BooksResponse{Books: books})
}

func (h *Handler) Borrow(c echo.Context) error {
	claims, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no identity")
	}
	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "book id is invalid")
	}
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DueDate.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "due_date is required")
	}
	loan, err := h.librarySvc.Borrow(c.Request().Context(), claims.UserID, bookID, req.DueDate.Time)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDueDateRange):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		case errors.Is(err, repository.ErrNoCopies):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) Borrowed(c echo.Context) error {
	claims, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no identity")
	}
	loans, err := h.librarySvc.Borrowed(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.BorrowedResponse{Books: loans})
}

func (h *Handler) Return(c echo.Context) error {
	transactionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction id is invalid")
	}
	if err := h.librarySvc.Return(c.Request().Context(), transactionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.ReturnResponse{Success: true, Message: "book returned"})
}

func bindPageQuery(c echo.Context) (model.PageQuery, error) {
	var q model.PageQuery
	if err := c.Bind(&q); err != nil {
		return model.PageQuery{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return q, nil
}

func (h *Handler) AdminBooks(c echo.Context) error {
	q, err := bindPageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.librarySvc.BooksPage(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminUsers(c echo.Context) error {
	q, err := bindPageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.librarySvc.UsersPage(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminTransactions(c echo.Context) error {
	q, err := bindPageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.librarySvc.TransactionsPage(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminStats(c echo.Context) error {
	stats, err := h.librarySvc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminCreateBook(c echo.Context) error {
	var input model.BookInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&input); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) AdminUpdateBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "book id is invalid")
	}
	var input model.BookInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&input); err != nil {
		return err
	}
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) AdminDeleteBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "book id is invalid")
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
