package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/app"
	"github.com/abhisek/scholarly/internal/session"
	"github.com/abhisek/scholarly/internal/spacedrep"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work through due spaced-repetition reviews",
	Long: "Serves the questions you missed once they come due. Works without an LLM\n" +
		"provider; answers that need judging then count as incorrect.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, _ := cmd.Flags().GetString("topic")

		q := newQuizRunner(cmd.InOrStdin(), cmd.OutOrStdout())
		a, err := openApp(cmd, app.Options{Observer: q.observe, Offline: true})
		if err != nil {
			return err
		}
		defer closeApp(a)
		q.app = a

		opts := session.Options{ReviewOnly: true}
		if ref != "" {
			t, err := resolveTopic(cmd, a.Store, ref)
			if err != nil {
				return err
			}
			opts.TopicID = t.ID
		}

		due, err := spacedrep.NewScheduler(a.Store.Reviews()).Due(cmd.Context(), opts.TopicID, time.Now())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			q.println(theme.Correct.Render("Nothing due. Come back later."))
			return nil
		}
		q.println(theme.Hint.Render(fmt.Sprintf("%d review(s) due.", len(due))))
		if a.Generator == nil {
			q.println(theme.Hint.Render("No LLM provider configured; only exact answers will be accepted."))
		}
		return q.run(cmd.Context(), opts)
	},
}

func init() {
	reviewCmd.Flags().String("topic", "", "Only review one topic (id, id prefix or name)")
}
