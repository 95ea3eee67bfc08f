package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bookworm-app/bookworm/internal/lending"
	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *App) booksCmd() *cobra.Command {
	var availableOnly bool
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			books, err := a.workflow.Books(cmd.Context())
			if err != nil {
				return err
			}
			if availableOnly {
				books = lending.ListAvailable(books)
			}
			w := newTable(os.Stdout)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tAVAILABLE")
			for _, b := range books {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\n", b.ID, b.Title, b.Author, b.AvailableCopies, b.TotalCopies)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&availableOnly, "available", false, "only books with free copies")
	return cmd
}

func (a *App) borrowCmd() *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			bookID, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New("book id must be a number")
			}
			dueDate, err := time.ParseInLocation(time.DateOnly, due, time.Local)
			if err != nil {
				return errors.Errorf("due date %q is not yyyy-mm-dd", due)
			}
			// end of day, so "today + 3" means the whole third day
			dueDate = dueDate.Add(24*time.Hour - time.Second)

			loan, snap, err := a.workflow.Borrow(cmd.Context(), bookID, dueDate, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Borrowed %q, transaction %d, due %s.\n",
				loan.Title, loan.TransactionID, loan.DueDate.Format(time.DateOnly))
			printLoans(snap.Loans)
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date, yyyy-mm-dd")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func (a *App) returnCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "return <transaction-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			transactionID, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New("transaction id must be a number")
			}
			if !yes && !confirm(bufio.NewReader(os.Stdin), fmt.Sprintf("Return transaction %d?", transactionID)) {
				fmt.Println("Cancelled.")
				return nil
			}
			snap, err := a.workflow.Return(cmd.Context(), transactionID)
			if err != nil {
				return err
			}
			fmt.Println("Returned.")
			printLoans(snap.Loans)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) borrowedCmd() *cobra.Command {
	var overdueOnly bool
	cmd := &cobra.Command{
		Use:   "borrowed",
		Short: "List your loans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			loans, err := a.workflow.Borrowed(cmd.Context())
			if err != nil {
				return err
			}
			if overdueOnly {
				now := time.Now()
				filtered := loans[:0]
				for _, l := range loans {
					if lending.IsOverdue(l, now) {
						filtered = append(filtered, l)
					}
				}
				loans = filtered
			}
			printLoans(loans)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overdueOnly, "overdue", false, "only loans past their due date")
	return cmd
}

func printLoans(loans []model.Loan) {
	if len(loans) == 0 {
		fmt.Println("No loans.")
		return
	}
	now := time.Now()
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "TRANSACTION\tTITLE\tAUTHOR\tDUE\tSTATUS")
	for _, l := range loans {
		status := string(l.Status)
		if lending.IsOverdue(l, now) {
			status = "overdue"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			l.TransactionID, l.Title, l.Author, l.DueDate.Format(time.DateOnly), status)
	}
	_ = w.Flush()
}
