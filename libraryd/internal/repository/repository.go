package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNoCopies   = errors.New("no copies available")
	ErrEmailTaken = errors.New("email already registered")
)

// User is the server-side account record. The password hash never leaves
// this package's callers.
type User struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewRepository opens (or creates) the SQLite database and applies the schema.
func NewRepository(cfg config.Database, log *zap.Logger) (*Repository, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db, log: log}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errors.Wrap(err, "enable WAL")
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user'
		);`,
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			publisher TEXT NOT NULL DEFAULT '',
			total_copies INTEGER NOT NULL,
			available_copies INTEGER NOT NULL,
			CHECK (available_copies >= 0 AND available_copies <= total_copies)
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_uid TEXT NOT NULL,
			book_id INTEGER NOT NULL REFERENCES books(id),
			user_id INTEGER NOT NULL REFERENCES users(id),
			borrowed_at DATETIME NOT NULL,
			due_date DATETIME NOT NULL,
			returned_at DATETIME,
			status TEXT NOT NULL DEFAULT 'borrowed'
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash, role string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrEmailTaken
		}
		return 0, errors.Wrap(err, "insert user")
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, description, publisher, total_copies, available_copies
		 FROM books ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Publisher, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *Repository) GetBook(ctx context.Context, id int) (model.Book, error) {
	var b model.Book
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, description, publisher, total_copies, available_copies
		 FROM books WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Publisher, &b.TotalCopies, &b.AvailableCopies)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, ErrNotFound
	}
	return b, err
}

func (r *Repository) CreateBook(ctx context.Context, input model.BookInput) (model.Book, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO books (title, author, description, publisher, total_copies, available_copies)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		input.Title, input.Author, input.Description, input.Publisher, input.TotalCopies, input.TotalCopies)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "insert book")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Book{}, err
	}
	return r.GetBook(ctx, int(id))
}

// UpdateBook changes metadata and the total; available copies shift by the
// same delta so outstanding loans stay accounted for.
func (r *Repository) UpdateBook(ctx context.Context, id int, input model.BookInput) (model.Book, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, description = ?, publisher = ?,
		     available_copies = available_copies + (? - total_copies),
		     total_copies = ?
		 WHERE id = ?`,
		input.Title, input.Author, input.Description, input.Publisher, input.TotalCopies, input.TotalCopies, id)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "update book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Book{}, ErrNotFound
	}
	return r.GetBook(ctx, id)
}

func (r *Repository) DeleteBook(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Borrow atomically claims one copy and records the loan. The copy counter
// is the serialization point: at zero the conditional update matches no row
// and the caller gets ErrNoCopies.
func (r *Repository) Borrow(ctx context.Context, bookID, userID int, due, now time.Time) (model.Loan, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1
		 WHERE id = ? AND available_copies > 0`, bookID)
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "claim copy")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetBook(ctx, bookID); errors.Is(err, ErrNotFound) {
			return model.Loan{}, ErrNotFound
		}
		return model.Loan{}, ErrNoCopies
	}

	uid := uuid.NewString()
	ins, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (transaction_uid, book_id, user_id, borrowed_at, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uid, bookID, userID, now.UTC(), due.UTC(), string(model.LoanBorrowed))
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "insert transaction")
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return model.Loan{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Loan{}, errors.Wrap(err, "commit")
	}

	return model.Loan{
		TransactionID:  int(id),
		TransactionUID: uid,
		BookID:         bookID,
		BorrowerID:     userID,
		BorrowedAt:     now.UTC(),
		DueDate:        due.UTC(),
		Status:         model.LoanBorrowed,
	}, nil
}

// Return closes exactly one still-borrowed transaction. A second return of
// the same transaction matches no row and reports ErrNotFound, which keeps
// the operation idempotent from the client's point of view.
func (r *Repository) Return(ctx context.Context, transactionID int, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var bookID int
	err = tx.QueryRowContext(ctx,
		`SELECT book_id FROM transactions WHERE id = ? AND status = ?`,
		transactionID, string(model.LoanBorrowed)).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "find transaction")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = ?, returned_at = ? WHERE id = ?`,
		string(model.LoanReturned), now.UTC(), transactionID); err != nil {
		return errors.Wrap(err, "close transaction")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies + 1 WHERE id = ?`, bookID); err != nil {
		return errors.Wrap(err, "release copy")
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (r *Repository) BorrowedByUser(ctx context.Context, userID int) ([]model.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.transaction_uid, t.book_id, t.user_id, t.borrowed_at, t.due_date, t.returned_at, t.status,
		        b.title, b.author
		 FROM transactions t JOIN books b ON b.id = t.book_id
		 WHERE t.user_id = ?
		 ORDER BY t.borrowed_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list borrowed")
	}
	defer rows.Close()
	return scanLoans(rows)
}

func scanLoans(rows *sql.Rows) ([]model.Loan, error) {
	loans := make([]model.Loan, 0)
	for rows.Next() {
		var (
			l        model.Loan
			returned sql.NullTime
			status   string
		)
		if err := rows.Scan(&l.TransactionID, &l.TransactionUID, &l.BookID, &l.BorrowerID,
			&l.BorrowedAt, &l.DueDate, &returned, &status, &l.Title, &l.Author); err != nil {
			return nil, err
		}
		if returned.Valid {
			t := returned.Time
			l.ReturnedAt = &t
		}
		l.Status = model.LoanStatus(status)
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

const defaultPerPage = 10

func normalizePage(q model.PageQuery) (page, perPage, offset int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	perPage = q.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage, (page - 1) * perPage
}

func meta(page, perPage, total int) model.Meta {
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return model.Meta{CurrentPage: page, LastPage: last, PerPage: perPage, Total: total}
}

func (r *Repository) ListBooksPage(ctx context.Context, q model.PageQuery) (model.Page[model.Book], error) {
	page, perPage, offset := normalizePage(q)
	like := "%" + q.Search + "%"

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE title LIKE ? OR author LIKE ?`, like, like).Scan(&total); err != nil {
		return model.Page[model.Book]{}, errors.Wrap(err, "count books")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, description, publisher, total_copies, available_copies
		 FROM books WHERE title LIKE ? OR author LIKE ?
		 ORDER BY id LIMIT ? OFFSET ?`, like, like, perPage, offset)
	if err != nil {
		return model.Page[model.Book]{}, errors.Wrap(err, "page books")
	}
	defer rows.Close()

	books := make([]model.Book, 0, perPage)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Publisher, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return model.Page[model.Book]{}, err
		}
		books = append(books, b)
	}
	return model.Page[model.Book]{Data: books, Meta: meta(page, perPage, total)}, rows.Err()
}

func (r *Repository) ListUsersPage(ctx context.Context, q model.PageQuery) (model.Page[model.Identity], error) {
	page, perPage, offset := normalizePage(q)
	like := "%" + q.Search + "%"

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE name LIKE ? OR email LIKE ?`, like, like).Scan(&total); err != nil {
		return model.Page[model.Identity]{}, errors.Wrap(err, "count users")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, role FROM users WHERE name LIKE ? OR email LIKE ?
		 ORDER BY id LIMIT ? OFFSET ?`, like, like, perPage, offset)
	if err != nil {
		return model.Page[model.Identity]{}, errors.Wrap(err, "page users")
	}
	defer rows.Close()

	users := make([]model.Identity, 0, perPage)
	for rows.Next() {
		var u model.Identity
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return model.Page[model.Identity]{}, err
		}
		users = append(users, u)
	}
	return model.Page[model.Identity]{Data: users, Meta: meta(page, perPage, total)}, rows.Err()
}

func (r *Repository) ListTransactionsPage(ctx context.Context, q model.PageQuery) (model.Page[model.Loan], error) {
	page, perPage, offset := normalizePage(q)
	like := "%" + q.Search + "%"

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t JOIN books b ON b.id = t.book_id
		 WHERE b.title LIKE ? OR b.author LIKE ?`, like, like).Scan(&total); err != nil {
		return model.Page[model.Loan]{}, errors.Wrap(err, "count transactions")
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.transaction_uid, t.book_id, t.user_id, t.borrowed_at, t.due_date, t.returned_at, t.status,
		        b.title, b.author
		 FROM transactions t JOIN books b ON b.id = t.book_id
		 WHERE b.title LIKE ? OR b.author LIKE ?
		 ORDER BY t.borrowed_at DESC LIMIT ? OFFSET ?`, like, like, perPage, offset)
	if err != nil {
		return model.Page[model.Loan]{}, errors.Wrap(err, "page transactions")
	}
	defer rows.Close()

	loans, err := scanLoans(rows)
	if err != nil {
		return model.Page[model.Loan]{}, err
	}
	return model.Page[model.Loan]{Data: loans, Meta: meta(page, perPage, total)}, nil
}

func (r *Repository) Stats(ctx context.Context, now time.Time) (model.DashboardStats, error) {
	var s model.DashboardStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&s.TotalBooks); err != nil {
		return model.DashboardStats{}, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers); err != nil {
		return model.DashboardStats{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE status = ?`, string(model.LoanBorrowed)).Scan(&s.ActiveLoans); err != nil {
		return model.DashboardStats{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE status = ? AND due_date < ?`,
		string(model.LoanBorrowed), now.UTC()).Scan(&s.OverdueLoans); err != nil {
		return model.DashboardStats{}, err
	}
	return s, nil
}
