package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/app"
	"github.com/abhisek/scholarly/internal/session"
	"github.com/abhisek/scholarly/internal/store"
)

var practiceCmd = &cobra.Command{
	Use:   "practice <topic>",
	Short: "Continue a topic where you left off",
	Long: "Runs a quiz session on the topic's current subtopic. Due reviews come first.\n" +
		"The topic can be given by id, id prefix or name.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetString("focus")
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}

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

		t, err := resolveTopic(cmd, a.Store, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return q.run(cmd.Context(), session.Options{
			TopicID:       t.ID,
			FocusSubtopic: focus,
			Format:        format,
		})
	},
}

func formatFlag(cmd *cobra.Command) (store.QuestionFormat, error) {
	v, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(v) {
	case "":
		return "", nil
	case "mc", "multiple_choice":
		return store.FormatMultipleChoice, nil
	case "free", "free_response":
		return store.FormatFreeResponse, nil
	}
	return "", fmt.Errorf("unknown format %q (want mc or free)", v)
}

// resolveTopic finds a topic by exact id, unique id prefix or
// case-insensitive name.
func resolveTopic(cmd *cobra.Command, s *store.Store, ref string) (*store.Topic, error) {
	t, err := s.Topics().Get(cmd.Context(), ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	topics, err := s.Topics().List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var matches []store.Topic
	for _, t := range topics {
		if strings.EqualFold(t.Name, ref) {
			return &t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no topic matches %q; run 'scholarly topics' to list them", ref)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%q matches %d topics; use a longer id", ref, len(matches))
}

func init() {
	practiceCmd.Flags().String("focus", "", "Practice one subtopic instead of the current one")
	practiceCmd.Flags().String("format", "", "Question format: mc or free")
}
