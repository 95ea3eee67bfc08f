// Package cli implements the bookworm terminal client.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/internal/credstore"
	"github.com/bookworm-app/bookworm/internal/lending"
	"github.com/bookworm-app/bookworm/internal/service/admin"
	"github.com/bookworm-app/bookworm/internal/service/auth"
	"github.com/bookworm-app/bookworm/internal/service/catalog"
	"github.com/bookworm-app/bookworm/internal/session"
	"github.com/bookworm-app/bookworm/pkg/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type App struct {
	log      *zap.Logger
	cfg      config.Config
	session  *session.Store
	workflow *lending.Workflow
	admin    *admin.Service
}

func newApp(ops ...config.Option) *App {
	cfg := config.NewConfig(ops...)
	log := logger.NewLogger(cfg.Log, "bookworm")

	authSvc := auth.NewService(log, cfg)
	creds := credstore.New(cfg.Credentials.Path)
	sess := session.NewStore(authSvc, creds, log)

	catalogSvc := catalog.NewService(log, cfg)
	return &App{
		log:      log,
		cfg:      cfg,
		session:  sess,
		workflow: lending.New(catalogSvc, sess, log),
		admin:    admin.NewService(log, cfg),
	}
}

// requireAuth fails fast unless the startup restore produced an
// authenticated session.
func (a *App) requireAuth() error {
	if a.session.State() != session.StateAuthenticated {
		return errors.New("not logged in (run 'bookworm login' first)")
	}
	return nil
}

func NewRootCmd() *cobra.Command {
	app := &App{}
	root := &cobra.Command{
		Use:           "bookworm",
		Short:         "bookworm is a terminal client for the library service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			*app = *newApp()
			app.session.Restore(cmd.Context())
		},
	}

	root.AddCommand(
		app.loginCmd(),
		app.registerCmd(),
		app.logoutCmd(),
		app.whoamiCmd(),
		app.booksCmd(),
		app.borrowCmd(),
		app.returnCmd(),
		app.borrowedCmd(),
		app.adminCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(raw), nil
}

func confirm(in *bufio.Reader, prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newTable(out *os.File) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}
