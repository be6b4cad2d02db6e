package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/scholarly/internal/store"
)

const topicSystemPrompt = `You are a curriculum designer. Break the topic the learner names into a sequence of subtopics that can each be learned and quizzed on in one short sitting.

Rules:
- Order subtopics from foundations to advanced material.
- Use between 4 and 8 subtopics unless the topic is very narrow.
- Subtopic names are short noun phrases, unique within the topic.
- Correct obvious spelling mistakes in the topic name.`

const lessonSystemPrompt = `You are a patient tutor writing a short lesson for an adult self-learner. Be accurate and concrete. Prefer examples over abstractions. Plain text only, no markdown.`

const questionSystemPrompt = `You are a tutor writing quiz questions that check real understanding, not trivia recall.

Rules:
- Every question must be answerable from common knowledge of the subtopic.
- Tag each question with exactly one of the listed subtopic names, spelled as given.
- For "multiple_choice", give exactly 4 distinct options; the correct answer must be one of them, copied exactly. Distractors should reflect common mistakes.
- For "free_response", the answer must be short (a word, a name, a number or a brief phrase). List other accepted phrasings in acceptable_answers. Leave choices empty.
- Vary the correct answers; do not reuse the same answer across questions.
- Do not repeat or paraphrase any question from the "already asked" list.`

const judgeSystemPrompt = `You grade free-text quiz answers. Decide whether the learner's answer means the same thing as the correct answer. Accept synonyms, abbreviations, minor misspellings and extra detail that is still correct. Reject answers that are vague, partially wrong or answer a different question.`

func buildTopicMessage(name string) string {
	return fmt.Sprintf("Topic: %s", strings.TrimSpace(name))
}

func buildLessonMessage(topic *store.Topic, subtopic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic.Name)
	fmt.Fprintf(&b, "Subtopic: %s\n", subtopic)
	if i := indexOf(topic.Subtopics, subtopic); i > 0 {
		fmt.Fprintf(&b, "Already covered: %s\n", strings.Join(topic.Subtopics[:i], ", "))
	}
	return b.String()
}

// buildQuestionMessage constructs the user message for a question batch.
func buildQuestionMessage(req QuestionRequest, maxPrior int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", req.Topic.Name)
	if req.FocusSubtopic != "" {
		fmt.Fprintf(&b, "Subtopics: %s\n", req.FocusSubtopic)
	} else {
		fmt.Fprintf(&b, "Subtopics: %s\n", strings.Join(req.Topic.Subtopics, "; "))
	}
	fmt.Fprintf(&b, "Number of questions: %d\n", BatchSize)
	switch req.Format {
	case store.FormatMultipleChoice, store.FormatFreeResponse:
		fmt.Fprintf(&b, "Format: %s only\n", req.Format)
	default:
		b.WriteString("Format: mix multiple_choice and free_response\n")
	}
	fmt.Fprintf(&b, "Difficulty: %d of 5\n", clampDifficulty(req.Difficulty))

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(req.Asked, maxPrior))

	return b.String()
}

func buildJudgeMessage(req JudgeRequest) string {
	var b strings.Builder
	if req.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	}
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Correct answer: %s\n", req.CorrectAnswer)
	if len(req.AcceptableAnswers) > 0 {
		fmt.Fprintf(&b, "Also accepted: %s\n", strings.Join(req.AcceptableAnswers, "; "))
	}
	fmt.Fprintf(&b, "Learner's answer: %s\n", req.Response)
	return b.String()
}

// buildDedup formats prior questions for the prompt, keeping the most recent
// max. Returns "None" if there are none.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func clampDifficulty(d int) int {
	switch {
	case d < 1:
		return 1
	case d > 5:
		return 5
	}
	return d
}
