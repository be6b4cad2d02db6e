package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/scholarly/internal/app"
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/session"
	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/ui/components"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

// quitWord ends a session early.
const quitWord = ":q"

// quizRunner drives one session on a line-oriented terminal. The app is set
// after construction because its observer is the runner itself.
type quizRunner struct {
	app   *app.App
	out   io.Writer
	lines <-chan string

	// mu serializes observer output from background goroutines with the
	// foreground prompt.
	mu sync.Mutex
	xp int
}

func newQuizRunner(in io.Reader, out io.Writer) *quizRunner {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &quizRunner{out: out, lines: lines}
}

func (q *quizRunner) println(a ...any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	lipgloss.Fprintln(q.out, a...)
}

func (q *quizRunner) printf(format string, a ...any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	lipgloss.Fprintf(q.out, format, a...)
}

// observe prints the background events the foreground loop cannot see.
func (q *quizRunner) observe(e session.Event) {
	switch e.Kind {
	case session.EventLessonReady:
		q.println(theme.Hint.Render(fmt.Sprintf("  (lesson for %q is ready)", e.Subtopic)))
	case session.EventStreakProtected:
		q.println(theme.XP.Render(fmt.Sprintf("❄ Streak freeze used for %s", strings.Join(e.Days, ", "))))
	case session.EventGenerationError:
		what := "question"
		if e.SessionID == "" {
			what = "lesson"
		}
		q.println(theme.Hint.Render(fmt.Sprintf("  (%s generation failed: %v)", what, e.Err)))
	}
}

// readLine prompts and waits for one line. It reports false at end of
// input or when ctx is done.
func (q *quizRunner) readLine(ctx context.Context, prompt string) (string, bool) {
	q.printf("%s", theme.Subtitle.Render(prompt))
	select {
	case <-ctx.Done():
		q.println()
		return "", false
	case line, ok := <-q.lines:
		return strings.TrimSpace(line), ok
	}
}

// run plays a session to its end.
func (q *quizRunner) run(ctx context.Context, opts session.Options) error {
	o := q.app.Orchestrator
	if err := o.Start(ctx, opts); err != nil {
		return err
	}

	if o.Phase() == session.PhaseLesson {
		if !q.showLesson(ctx) {
			return q.finish(ctx)
		}
	}

	for {
		item, err := o.Next(ctx)
		switch {
		case errors.Is(err, session.ErrSessionEnded):
			return q.finish(ctx)
		case errors.Is(err, session.ErrNoQuestions):
			q.println(theme.Incorrect.Render("No questions could be generated right now. Try again later."))
			return q.finish(ctx)
		case ctx.Err() != nil:
			return q.finish(ctx)
		case err != nil:
			return err
		}

		q.printQuestion(item)
		answer, ok := q.readLine(ctx, "> ")
		if !ok || answer == quitWord {
			return q.finish(ctx)
		}
		if answer == "" {
			continue
		}

		res, err := o.Submit(ctx, answer)
		if err != nil {
			return err
		}
		q.printResult(res)
		if res.Summary != nil {
			q.xp += res.Summary.Outcome.XP()
			q.printSummary(ctx, res.Summary)
			return nil
		}
	}
}

func (q *quizRunner) finish(ctx context.Context) error {
	s, err := q.app.Orchestrator.End(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	q.xp += s.Outcome.XP()
	q.printSummary(ctx, s)
	return nil
}

// showLesson prints the current lesson and waits for Enter. Reports false
// when the learner quit.
func (q *quizRunner) showLesson(ctx context.Context) bool {
	o := q.app.Orchestrator
	sub, lesson, err := o.Lesson(ctx)
	if err != nil || lesson.Empty() {
		return true
	}
	q.println(renderLesson(sub, lesson))
	line, ok := q.readLine(ctx, "Press Enter to start the quiz ")
	if !ok || line == quitWord {
		return false
	}
	if err := o.ViewLesson(ctx); err != nil {
		q.app.Logger.Warn("mark lesson viewed", "error", err)
	}
	return true
}

func renderLesson(sub string, l *store.Lesson) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("📖 "+sub) + "\n\n")
	b.WriteString(theme.Body.Render(l.Overview) + "\n")
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n" + theme.Subtitle.Render(title) + "\n")
		for _, it := range items {
			b.WriteString("  • " + it + "\n")
		}
	}
	section("Key facts", l.KeyFacts)
	section("Common misconceptions", l.Misconceptions)
	section("Connections", l.Connections)
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func (q *quizRunner) printQuestion(item *session.Item) {
	header := fmt.Sprintf("Question %d · %s", item.Number, item.Question.Subtopic)
	if item.IsReview {
		header += " · review"
	}
	q.println()
	q.println(theme.Hint.Render(header))
	q.println(theme.Title.Render(item.Question.Text))
	if item.Question.Format == store.FormatMultipleChoice {
		q.printf("%s", components.Choices(item.Question.Choices, "", ""))
		q.println(theme.Hint.Render("Answer with the option number or its text. " + quitWord + " quits."))
	}
}

func (q *quizRunner) printResult(res *session.Result) {
	q.xp += res.Answer.XP() + res.Mastery.XP()

	if res.Correct {
		msg := "✓ Correct!"
		if res.Judged {
			msg = "✓ Accepted."
		}
		q.println(theme.Correct.Render(msg))
	} else {
		q.println(theme.Incorrect.Render("✗ Not quite. ") + theme.Body.Render("Answer: "+res.CorrectAnswer))
	}
	if res.Explanation != "" {
		q.println(theme.Hint.Render(res.Explanation))
	}

	if tr := res.Transition; tr != nil {
		q.println(theme.XP.Render("★ Mastered " + tr.Subtopic + "!"))
		switch {
		case tr.TopicMastered:
			q.println(theme.XP.Render("🏆 Topic complete!"))
		case tr.NextSubtopic != "":
			q.println(theme.Hint.Render("Next up: " + tr.NextSubtopic))
		}
	}
	q.printOutcome(res.Answer)
	q.printOutcome(res.Mastery)
}

func (q *quizRunner) printOutcome(out gamification.Outcome) {
	if xp := out.XP(); xp > 0 {
		q.println(theme.XP.Render(fmt.Sprintf("+%d XP", xp)))
	}
	for _, u := range out.Unlocked {
		q.println(theme.Achievement.Render(fmt.Sprintf("%s %s (+%d XP)  %s", u.Icon, u.Name, u.XP, u.Description)))
	}
	if out.RankUp != nil {
		q.println(theme.XP.Render(fmt.Sprintf("⬆ Rank up: %s → %s", out.RankUp.From.Name, out.RankUp.To.Name)))
	}
}

func (q *quizRunner) printSummary(ctx context.Context, s *session.Summary) {
	if s.Answered == 0 {
		q.println(theme.Hint.Render("Session ended with no answers."))
		return
	}
	q.printOutcome(s.Outcome)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete") + "\n")
	fmt.Fprintf(&b, "Correct: %d / %d\n", s.Correct, s.Answered)
	fmt.Fprintf(&b, "XP earned: %d\n", q.xp)

	engine := q.app.Engine
	if streak, err := engine.StreakWithFreezes(ctx); err == nil {
		fmt.Fprintf(&b, "Streak: %d day(s)\n", streak)
	}
	if done, err := engine.DailyGoal(ctx); err == nil {
		goal := "not yet"
		if done {
			goal = "complete ✓"
		}
		fmt.Fprintf(&b, "Daily goal: %s", goal)
	}
	q.println(theme.Card.Render(b.String()))
}
