// Package cli is the planner command line client. Each command runs one
// session against the planner API, waits for it to settle and prints the
// resulting board.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"planner/internal/config"
	"planner/internal/logging"
	"planner/internal/planner"
	"planner/internal/plannerclient"
)

// App carries what commands share. Authority is built from the flags
// when left nil.
type App struct {
	Authority planner.Authority
	Columns   planner.Columns
	Out       io.Writer

	url         string
	token       string
	columnsFile string
	timeout     time.Duration
	logLevel    string
	jsonOutput  bool
}

// NewRootCmd builds the command tree. cfg supplies flag defaults.
func NewRootCmd(app *App, cfg *config.Config) *cobra.Command {
	if app.Out == nil {
		app.Out = os.Stdout
	}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Planner - move content ideas from idea to scheduled",
		Long:          `Planner keeps a board of content ideas in sync with the planner API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init(cmd.ErrOrStderr(), app.logLevel)
			return nil
		},
	}
	root.SetOut(app.Out)

	flags := root.PersistentFlags()
	flags.StringVar(&app.url, "url", cfg.PlannerURL, "Planner API base URL")
	flags.StringVar(&app.token, "token", cfg.PlannerToken, "Bearer token")
	flags.StringVar(&app.columnsFile, "columns", cfg.ColumnsFile, "YAML file with the column enumeration")
	flags.DurationVar(&app.timeout, "timeout", cfg.SyncTimeout, "Timeout for saving the board order")
	flags.StringVar(&app.logLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.BoolVar(&app.jsonOutput, "json", false, "Print the board order as JSON")

	root.AddCommand(
		boardCmd(app),
		addCmd(app),
		moveCmd(app),
		stepCmd(app, "next", planner.Next),
		stepCmd(app, "prev", planner.Previous),
		editCmd(app),
		rmCmd(app),
	)
	return root
}

// Execute runs the planner CLI with configuration from the environment.
func Execute() error {
	return NewRootCmd(&App{}, config.Load()).Execute()
}

func (a *App) columns() (planner.Columns, error) {
	if a.Columns != nil {
		return a.Columns, nil
	}
	return config.LoadColumns(a.columnsFile)
}

func (a *App) authority() planner.Authority {
	if a.Authority != nil {
		return a.Authority
	}
	return plannerclient.New(a.url, plannerclient.WithToken(a.token))
}

// withSession runs a session, waits for the initial load, calls op, waits
// for every resulting save or reload, then prints the board and any notices.
func (a *App) withSession(ctx context.Context, op func(ctx context.Context, s *planner.Session) error) error {
	columns, err := a.columns()
	if err != nil {
		return err
	}

	notices := &planner.NoticeLog{}
	s, err := planner.NewSession(planner.Options{
		Columns:     columns,
		Authority:   a.authority(),
		Notifier:    notices,
		SyncTimeout: a.timeout,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := s.Run(runCtx); err != nil {
			slog.Error("planner session stopped", "error", err)
		}
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	if err := s.Settle(ctx); err != nil {
		return err
	}
	opErr := op(ctx, s)
	if err := s.Settle(ctx); err != nil {
		return err
	}

	var (
		out       string
		renderErr error
	)
	if err := s.View(ctx, func(v planner.BoardView) {
		if a.jsonOutput {
			out, renderErr = RenderJSON(v)
			return
		}
		out = RenderBoard(v)
	}); err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}
	fmt.Fprintln(a.Out, out)

	drained := notices.Drain()
	if len(drained) > 0 && !a.jsonOutput {
		fmt.Fprintln(a.Out, RenderNotices(drained))
	}
	if opErr != nil {
		return opErr
	}
	return noticeError(drained)
}

// noticeError turns error notices into the command's error so the exit
// status reflects a failed save.
func noticeError(notices []planner.Notice) error {
	var errs []error
	for _, n := range notices {
		if n.Level == planner.LevelError {
			errs = append(errs, errors.New(n.Message))
		}
	}
	return errors.Join(errs...)
}
