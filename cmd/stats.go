package cmd

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/ui/components"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show XP, rank, streak and achievements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		engine := gamification.New(s.Profile(), s.Stats())
		now := time.Now()

		p, err := engine.Profile(ctx)
		if err != nil {
			return err
		}
		streak, err := engine.Streak(ctx)
		if err != nil {
			return err
		}
		frozen, err := engine.StreakWithFreezes(ctx)
		if err != nil {
			return err
		}
		goal, err := engine.DailyGoal(ctx)
		if err != nil {
			return err
		}
		answered, correct, err := s.Stats().AnswerTotals(ctx)
		if err != nil {
			return err
		}
		topics, err := s.Stats().MasteredTopicCount(ctx)
		if err != nil {
			return err
		}
		subtopics, err := s.Stats().MasteredSubtopicCount(ctx)
		if err != nil {
			return err
		}
		due, err := s.Stats().DueReviewCount(ctx, now)
		if err != nil {
			return err
		}

		rank := gamification.RankFor(p.TotalXP)
		var b strings.Builder
		b.WriteString(theme.Title.Render(rank.Name) + theme.XP.Render(fmt.Sprintf("  %d XP", p.TotalXP)) + "\n")
		if next, ok := gamification.NextRank(rank); ok {
			bar := components.NewProgressBar(next.Name, gamification.RankProgress(p.TotalXP), true, 40)
			b.WriteString(bar.View() + theme.Hint.Render(fmt.Sprintf("  %d to go", next.MinXP-p.TotalXP)) + "\n")
		}
		b.WriteString("\n")

		streakLine := fmt.Sprintf("Streak:         %d day(s)", frozen)
		if frozen != streak {
			streakLine += theme.Hint.Render(fmt.Sprintf("  (%d without freezes)", streak))
		}
		b.WriteString(streakLine + "\n")
		fmt.Fprintf(&b, "Streak freezes: %d / %d\n", p.StreakFreezes, gamification.MaxFreezes)
		goalText := "not yet"
		if goal {
			goalText = theme.Correct.Render("complete ✓")
		}
		fmt.Fprintf(&b, "Daily goal:     %s\n\n", goalText)

		accuracy := 0.0
		if answered > 0 {
			accuracy = float64(correct) / float64(answered) * 100
		}
		fmt.Fprintf(&b, "Questions:      %d answered, %.0f%% correct\n", answered, accuracy)
		fmt.Fprintf(&b, "Mastered:       %d subtopic(s), %d topic(s)\n", subtopics, topics)
		fmt.Fprintf(&b, "Reviews due:    %d", due)
		lipgloss.Fprintln(out, theme.Card.Render(b.String()))

		if all, _ := cmd.Flags().GetBool("achievements"); all {
			unlocked, err := engine.Achievements(ctx)
			if err != nil {
				return err
			}
			lipgloss.Fprintln(out, achievementTable(unlocked))
		}
		if n, _ := cmd.Flags().GetInt("xp"); n > 0 {
			entries, err := s.Profile().XPEntries(ctx, n)
			if err != nil {
				return err
			}
			lipgloss.Fprintln(out, xpTable(entries))
		}
		return nil
	},
}

func achievementTable(unlocked []store.Achievement) *table.Table {
	at := make(map[string]time.Time, len(unlocked))
	for _, a := range unlocked {
		at[a.ID] = a.UnlockedAt
	}
	defs := gamification.Definitions()
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		when := ""
		if t, ok := at[d.ID]; ok {
			when = t.Local().Format(time.DateOnly)
		}
		rows = append(rows, []string{d.Icon + " " + d.Name, d.Description, fmt.Sprintf("+%d", d.XP), when})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("ACHIEVEMENT", "HOW", "XP", "UNLOCKED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return theme.Subtitle.Padding(0, 1)
			case rows[row][3] == "":
				return theme.Hint.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func xpTable(entries []store.XPEntry) *table.Table {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.AwardedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%+d", e.Amount),
			e.Reason,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("WHEN", "XP", "REASON").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Subtitle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func init() {
	statsCmd.Flags().Bool("achievements", false, "List every achievement")
	statsCmd.Flags().Int("xp", 0, "Show the last N XP ledger entries")
}
