package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bookworm-app/bookworm/internal/errs"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *App) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Library administration",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			s := a.session.Snapshot()
			if s.Identity.Role != model.RoleAdmin {
				return errors.New("admin role required")
			}
			return nil
		},
	}
	cmd.AddCommand(
		a.adminBooksCmd(),
		a.adminUsersCmd(),
		a.adminTransactionsCmd(),
		a.adminStatsCmd(),
		a.adminBookAddCmd(),
		a.adminBookUpdateCmd(),
		a.adminBookRmCmd(),
	)
	return cmd
}

func pageFlags(cmd *cobra.Command, q *model.PageQuery) {
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 10, "items per page")
	cmd.Flags().StringVar(&q.Search, "search", "", "filter by text")
}

// adminErr folds the transport error and the backend status into the error
// taxonomy. A dead credential wipes the local session, same as the lending
// path.
func (a *App) adminErr(code int, err error) error {
	if err != nil {
		return errs.Network(err)
	}
	err = errs.FromStatus(code, "")
	if errors.Is(err, errs.ErrAuth) {
		a.session.Expire()
	}
	return err
}

func printMeta(m model.Meta) {
	fmt.Printf("page %d/%d, %d total\n", m.CurrentPage, m.LastPage, m.Total)
}

func (a *App) adminBooksCmd() *cobra.Command {
	var q model.PageQuery
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List books with pagination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, code, err := a.admin.ListBooks(cmd.Context(), a.session.Token(), q)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			w := newTable(os.Stdout)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tPUBLISHER\tAVAILABLE")
			for _, b := range page.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n",
					b.ID, b.Title, b.Author, b.Publisher, b.AvailableCopies, b.TotalCopies)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printMeta(page.Meta)
			return nil
		},
	}
	pageFlags(cmd, &q)
	return cmd
}

func (a *App) adminUsersCmd() *cobra.Command {
	var q model.PageQuery
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts with pagination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, code, err := a.admin.ListUsers(cmd.Context(), a.session.Token(), q)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			w := newTable(os.Stdout)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
			for _, u := range page.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printMeta(page.Meta)
			return nil
		},
	}
	pageFlags(cmd, &q)
	return cmd
}

func (a *App) adminTransactionsCmd() *cobra.Command {
	var q model.PageQuery
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List lending transactions with pagination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, code, err := a.admin.ListTransactions(cmd.Context(), a.session.Token(), q)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			w := newTable(os.Stdout)
			fmt.Fprintln(w, "ID\tBOOK\tBORROWER\tDUE\tSTATUS")
			for _, l := range page.Data {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
					l.TransactionID, l.Title, l.BorrowerID, l.DueDate.Format(time.DateOnly), l.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printMeta(page.Meta)
			return nil
		},
	}
	pageFlags(cmd, &q)
	return cmd
}

func (a *App) adminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, code, err := a.admin.DashboardStats(cmd.Context(), a.session.Token())
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			w := newTable(os.Stdout)
			fmt.Fprintf(w, "books:\t%d\n", stats.TotalBooks)
			fmt.Fprintf(w, "users:\t%d\n", stats.TotalUsers)
			fmt.Fprintf(w, "active loans:\t%d\n", stats.ActiveLoans)
			fmt.Fprintf(w, "overdue loans:\t%d\n", stats.OverdueLoans)
			return w.Flush()
		},
	}
}

func bookInputFlags(cmd *cobra.Command, input *model.BookInput) {
	cmd.Flags().StringVar(&input.Title, "title", "", "book title")
	cmd.Flags().StringVar(&input.Author, "author", "", "book author")
	cmd.Flags().StringVar(&input.Description, "description", "", "book description")
	cmd.Flags().StringVar(&input.Publisher, "publisher", "", "book publisher")
	cmd.Flags().IntVar(&input.TotalCopies, "copies", 1, "total copies")
}

func (a *App) adminBookAddCmd() *cobra.Command {
	var input model.BookInput
	cmd := &cobra.Command{
		Use:   "book-add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, code, err := a.admin.CreateBook(cmd.Context(), a.session.Token(), input)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			fmt.Printf("Created book %d: %s\n", book.ID, book.Title)
			return nil
		},
	}
	bookInputFlags(cmd, &input)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (a *App) adminBookUpdateCmd() *cobra.Command {
	var input model.BookInput
	cmd := &cobra.Command{
		Use:   "book-update <book-id>",
		Short: "Update a catalog book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New("book id must be a number")
			}
			book, code, err := a.admin.UpdateBook(cmd.Context(), a.session.Token(), id, input)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			fmt.Printf("Updated book %d: %s\n", book.ID, book.Title)
			return nil
		},
	}
	bookInputFlags(cmd, &input)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (a *App) adminBookRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book-rm <book-id>",
		Short: "Remove a catalog book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New("book id must be a number")
			}
			code, err := a.admin.DeleteBook(cmd.Context(), a.session.Token(), id)
			if err = a.adminErr(code, err); err != nil {
				return err
			}
			fmt.Printf("Deleted book %d.\n", id)
			return nil
		},
	}
}
