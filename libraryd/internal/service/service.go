package service

import (
	"context"
	"time"

	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/libraryd/internal/repository"
	"github.com/bookworm-app/bookworm/pkg/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDueDateRange       = errors.New("due date out of range")
)

const (
	tokenTTL      = 24 * time.Hour
	maxLoanPeriod = 7 * 24 * time.Hour
)

type Service struct {
	log  *zap.Logger
	repo *repository.Repository
}

func NewService(log *zap.Logger, repo *repository.Repository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	id, err := s.repo.CreateUser(ctx, req.Name, req.Email, string(hash), model.RoleUser)
	if err != nil {
		return err
	}
	s.log.Info("user registered", zap.Int("user_id", id))
	return nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return issueToken(user)
}

func issueToken(user repository.User) (string, error) {
	now := time.Now()
	claims := auth.Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTKey)
	return token, errors.Wrap(err, "sign token")
}

func (s *Service) Books(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

// Borrow enforces the loan window server-side at calendar-day granularity:
// the wire format only carries a date, so the whole due day counts. Today is
// the earliest permitted due day, today plus seven the latest.
func (s *Service) Borrow(ctx context.Context, userID, bookID int, due time.Time) (model.Loan, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	if dueDay.Before(today) || dueDay.After(today.Add(maxLoanPeriod)) {
		return model.Loan{}, ErrDueDateRange
	}
	// store end of the due day so the loan is not overdue until it passes
	loan, err := s.repo.Borrow(ctx, bookID, userID, dueDay.Add(24*time.Hour-time.Second), now)
	if err != nil {
		return model.Loan{}, err
	}
	s.log.Info("book borrowed",
		zap.Int("user_id", userID),
		zap.Int("book_id", bookID),
		zap.Int("transaction_id", loan.TransactionID))
	return loan, nil
}

func (s *Service) Return(ctx context.Context, transactionID int) error {
	if err := s.repo.Return(ctx, transactionID, time.Now()); err != nil {
		return err
	}
	s.log.Info("book returned", zap.Int("transaction_id", transactionID))
	return nil
}

func (s *Service) Borrowed(ctx context.Context, userID int) ([]model.Loan, error) {
	return s.repo.BorrowedByUser(ctx, userID)
}

func (s *Service) BooksPage(ctx context.Context, q model.PageQuery) (model.Page[model.Book], error) {
	return s.repo.ListBooksPage(ctx, q)
}

func (s *Service) UsersPage(ctx context.Context, q model.PageQuery) (model.Page[model.Identity], error) {
	return s.repo.ListUsersPage(ctx, q)
}

func (s *Service) TransactionsPage(ctx context.Context, q model.PageQuery) (model.Page[model.Loan], error) {
	return s.repo.ListTransactionsPage(ctx, q)
}

func (s *Service) Stats(ctx context.Context) (model.DashboardStats, error) {
	return s.repo.Stats(ctx, time.Now())
}

func (s *Service) CreateBook(ctx context.Context, input model.BookInput) (model.Book, error) {
	return s.repo.CreateBook(ctx, input)
}

func (s *Service) UpdateBook(ctx context.Context, id int, input model.BookInput) (model.Book, error) {
	return s.repo.UpdateBook(ctx, id, input)
}

func (s *Service) DeleteBook(ctx context.Context, id int) error {
	return s.repo.DeleteBook(ctx, id)
}
