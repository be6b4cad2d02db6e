package cmd

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/app"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/session"
	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

var learnCmd = &cobra.Command{
	Use:   "learn <topic>",
	Short: "Start learning a new topic",
	Long: "Generates a learning path for the topic, then teaches and quizzes the first subtopic.\n" +
		"Run 'scholarly practice' to come back to a topic later.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		noQuiz, _ := cmd.Flags().GetBool("no-quiz")

		q := newQuizRunner(cmd.InOrStdin(), cmd.OutOrStdout())
		a, err := openApp(cmd, app.Options{Observer: q.observe})
		if err != nil {
			return err
		}
		defer closeApp(a)
		if err := a.RequireGenerator(); err != nil {
			return err
		}
		q.app = a

		q.println(theme.Hint.Render(fmt.Sprintf("Building a learning path for %q...", name)))
		t, err := a.Orchestrator.CreateTopic(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("create topic: %w", err)
		}
		progress, err := a.Store.Progress().List(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		q.println(renderPath(t, progress))

		if noQuiz {
			q.println(theme.Hint.Render("Start with: scholarly practice " + t.ID))
			return nil
		}
		return q.run(cmd.Context(), session.Options{TopicID: t.ID})
	},
}

// renderPath prints a topic's subtopics with their mastery state.
func renderPath(t *store.Topic, progress []store.SubtopicProgress) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(t.Name))
	if t.Category != "" {
		b.WriteString(theme.Hint.Render("  " + t.Category))
	}
	b.WriteString("\n" + theme.Hint.Render("id: "+t.ID) + "\n\n")

	for i, step := range mastery.Path(progress) {
		var marker string
		var style lipgloss.Style
		switch step.State {
		case mastery.StepMastered:
			marker, style = "✓", theme.Correct
		case mastery.StepCurrent:
			marker, style = "▶", theme.XP
		default:
			marker, style = "·", theme.Hint
		}
		line := fmt.Sprintf("%s %d. %s", marker, i+1, step.Subtopic)
		if step.Answered > 0 {
			line += fmt.Sprintf("  (%d answered, %.0f%%)", step.Answered, step.Accuracy)
		}
		b.WriteString(style.Render(line) + "\n")
	}
	if len(t.RelatedTopics) > 0 {
		b.WriteString("\n" + theme.Hint.Render("Related: "+strings.Join(t.RelatedTopics, ", ")))
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func init() {
	learnCmd.Flags().Bool("no-quiz", false, "Only build the learning path")
}
