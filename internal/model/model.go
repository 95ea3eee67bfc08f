package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the backend-resolved account behind a credential. It is never
// mutated locally.
type Identity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Date marshals as yyyy-mm-dd.
type Date struct {
	time.Time `json:",inline"`
}

func (d *Date) UnmarshalJSON(b []byte) (err error) {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		return nil
	}
	date, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = date
	return
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte("\"" + d.Format(time.DateOnly) + "\""), nil
}

type Book struct {
	ID              int    `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	Description     string `json:"description" db:"description"`
	Publisher       string `json:"publisher" db:"publisher"`
	TotalCopies     int    `json:"total_copies" db:"total_copies"`
	AvailableCopies int    `json:"available_copies" db:"available_copies"`
}

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
)

// Loan is a single lending transaction joined with book info. The backend is
// the only writer of Status and ReturnedAt.
type Loan struct {
	TransactionID  int        `json:"transaction_id" db:"id"`
	TransactionUID string     `json:"transaction_uid,omitempty" db:"transaction_uid"`
	BookID         int        `json:"book_id" db:"book_id"`
	BorrowerID     int        `json:"borrower_id" db:"user_id"`
	Title          string     `json:"title,omitempty"`
	Author         string     `json:"author,omitempty"`
	BorrowedAt     time.Time  `json:"borrowed_at" db:"borrowed_at"`
	DueDate        time.Time  `json:"due_date" db:"due_date"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty" db:"returned_at"`
	Status         LoanStatus `json:"status" db:"status"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type MeResponse struct {
	User Identity `json:"user"`
}

type BooksResponse struct {
	Books []Book `json:"books"`
}

type BorrowedResponse struct {
	Books []Loan `json:"books"`
}

type BorrowRequest struct {
	DueDate Date `json:"due_date" validate:"required"`
}

type ReturnResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PageQuery carries the admin listing query parameters.
type PageQuery struct {
	Page    int    `query:"page" json:"page"`
	PerPage int    `query:"per_page" json:"per_page"`
	Search  string `query:"search" json:"search"`
}

type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Page is the admin listing envelope.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

type DashboardStats struct {
	TotalBooks   int `json:"total_books"`
	TotalUsers   int `json:"total_users"`
	ActiveLoans  int `json:"active_loans"`
	OverdueLoans int `json:"overdue_loans"`
}

// BookInput is the admin create/update payload.
type BookInput struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description"`
	Publisher   string `json:"publisher"`
	TotalCopies int    `json:"total_copies" validate:"required,gte=1"`
}
