package cli

import (
	"fmt"
	"os"

	"github.com/bookworm-app/bookworm/internal/model"
	"github.com/bookworm-app/bookworm/internal/session"
	"github.com/spf13/cobra"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readPassword("Password: "); err != nil {
					return err
				}
			}
			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			s := a.session.Snapshot()
			fmt.Printf("Signed in as %s <%s>\n", s.Identity.Name, s.Identity.Email)
			if s.Identity.Role == model.RoleAdmin {
				fmt.Println("Admin tools are available under 'bookworm admin'.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *App) registerCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirmation, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if err := a.session.Register(cmd.Context(), name, email, password, confirmation); err != nil {
				return err
			}
			fmt.Println("Account created. Run 'bookworm login' to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.session.Logout(cmd.Context())
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(_ *cobra.Command, _ []string) error {
			s := a.session.Snapshot()
			if s.State != session.StateAuthenticated {
				fmt.Println("Not signed in.")
				return nil
			}
			w := newTable(os.Stdout)
			fmt.Fprintf(w, "name:\t%s\n", s.Identity.Name)
			fmt.Fprintf(w, "email:\t%s\n", s.Identity.Email)
			fmt.Fprintf(w, "role:\t%s\n", s.Identity.Role)
			return w.Flush()
		},
	}
}
