package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"planner/internal/planner"
)

func boardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withSession(cmd.Context(), func(context.Context, *planner.Session) error {
				return nil
			})
		},
	}
}

func addCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an idea to the first column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var notes *string
			if cmd.Flags().Changed("notes") {
				n, _ := cmd.Flags().GetString("notes")
				notes = &n
			}
			return app.withSession(cmd.Context(), func(ctx context.Context, s *planner.Session) error {
				_, err := s.CreateItem(ctx, args[0], notes)
				return err
			})
		},
	}
	cmd.Flags().String("notes", "", "Notes for the idea")
	return cmd
}

func moveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <column> <index>",
		Short: "Move an idea to a position in a column",
		Long: `Move an idea to a position in a column, as a drag and drop would.

Examples:
  # Put an idea at the top of filming
  planner move 3f2c... filming 0
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to := planner.ColumnID(args[1])
			index, err := strconv.Atoi(args[2])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid index %q", args[2])
			}
			return app.withSession(cmd.Context(), func(ctx context.Context, s *planner.Session) error {
				from, err := locate(ctx, s, id)
				if err != nil {
					return err
				}
				_, err = s.Drop(ctx, planner.DropEvent{ItemID: id, From: from, To: to, TargetIndex: index})
				return err
			})
		},
	}
}

func stepCmd(app *App, name string, dir planner.Direction) *cobra.Command {
	short := "Move an idea to the end of the next column"
	if dir == planner.Previous {
		short = "Move an idea to the end of the previous column"
	}
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.withSession(cmd.Context(), func(ctx context.Context, s *planner.Session) error {
				_, err := s.MoveAdjacent(ctx, id, dir)
				if errors.Is(err, planner.ErrNoAdjacentColumn) {
					// Already reported as a notice.
					return nil
				}
				return err
			})
		},
	}
}

func editCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an idea's title, display title or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			return app.withSession(cmd.Context(), func(ctx context.Context, s *planner.Session) error {
				current, err := lookup(ctx, s, id)
				if err != nil {
					return err
				}
				upd := planner.ItemUpdate{
					Title:        current.Title,
					DisplayTitle: current.Label(),
					Notes:        current.Notes,
				}
				if flags.Changed("title") {
					upd.Title, _ = flags.GetString("title")
				}
				if flags.Changed("display-title") {
					upd.DisplayTitle, _ = flags.GetString("display-title")
				}
				if flags.Changed("notes") {
					n, _ := flags.GetString("notes")
					upd.Notes = &n
				}
				_, err = s.UpdateItem(ctx, id, upd)
				return err
			})
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("display-title", "", "New display title, blank to reuse the title")
	cmd.Flags().String("notes", "", "New notes")
	return cmd
}

func rmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.withSession(cmd.Context(), func(ctx context.Context, s *planner.Session) error {
				return s.DeleteItem(ctx, id)
			})
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid idea id %q", raw)
	}
	return id, nil
}

// locate returns the column currently holding id.
func locate(ctx context.Context, s *planner.Session, id uuid.UUID) (planner.ColumnID, error) {
	var (
		col   planner.ColumnID
		found bool
	)
	if err := s.View(ctx, func(v planner.BoardView) { col, _, found = v.Find(id) }); err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("idea %s: %w", id, planner.ErrNotFound)
	}
	return col, nil
}

func lookup(ctx context.Context, s *planner.Session, id uuid.UUID) (planner.Item, error) {
	var (
		item  planner.Item
		found bool
	)
	err := s.View(ctx, func(v planner.BoardView) {
		col, idx, ok := v.Find(id)
		if !ok {
			return
		}
		item, found = v.Items(col)[idx], true
	})
	if err != nil {
		return planner.Item{}, err
	}
	if !found {
		return planner.Item{}, fmt.Errorf("idea %s: %w", id, planner.ErrNotFound)
	}
	return item, nil
}
