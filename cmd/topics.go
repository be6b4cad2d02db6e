package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/ui/components"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List your topics and their progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		topics, err := s.Topics().List(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(topics) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("No topics yet. Start one with: scholarly learn <topic>"))
			return nil
		}

		rows := make([][]string, 0, len(topics))
		for _, t := range topics {
			progress, err := s.Progress().List(ctx, t.ID)
			if err != nil {
				return err
			}
			current := mastery.CurrentSubtopic(progress)
			if current == "" {
				current = "✓ complete"
			}
			last := "never"
			if t.LastPracticed != nil {
				last = t.LastPracticed.Local().Format(time.DateOnly)
			}
			bar := components.NewProgressBar("", mastery.Percent(progress)/100, true, 24)
			rows = append(rows, []string{shortID(t.ID), t.Name, current, bar.View(), last})
		}

		tbl := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
			Headers("ID", "TOPIC", "CURRENT", "MASTERED", "LAST PRACTICED").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return theme.Subtitle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		lipgloss.Fprintln(out, tbl)
		return nil
	},
}

var topicsShowCmd = &cobra.Command{
	Use:   "show <topic>",
	Short: "Show a topic's learning path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := resolveTopic(cmd, s, args[0])
		if err != nil {
			return err
		}
		progress, err := s.Progress().List(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), renderPath(t, progress))
		return nil
	},
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete <topic>",
	Short: "Delete a topic with its progress, reviews and cached questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := resolveTopic(cmd, s, args[0])
		if err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this deletes %q and all its progress; rerun with --yes to confirm", t.Name)
		}
		if err := s.Topics().Delete(cmd.Context(), t.ID); err != nil {
			return err
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("Deleted "+t.Name))
		return nil
	},
}

// shortID trims a UUID to a prefix that resolveTopic still accepts.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	topicsDeleteCmd.Flags().Bool("yes", false, "Confirm deletion")
	topicsCmd.AddCommand(topicsShowCmd, topicsDeleteCmd)
}
