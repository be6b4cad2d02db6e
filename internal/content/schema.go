package content

import (
	"github.com/abhisek/scholarly/internal/llm"
	"github.com/abhisek/scholarly/internal/store"
)

// TopicSchema defines the JSON schema for topic outlines.
var TopicSchema = &llm.Schema{
	Name:        "topic-outline",
	Description: "An ordered list of subtopics that builds up a topic from basics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Clean display name of the topic",
			},
			"subtopics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    3,
				"maxItems":    12,
				"description": "Subtopics in learning order, each 2-6 words",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Broad field, e.g. Science, History, Programming",
			},
			"related_topics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "2-4 neighbouring topics worth studying next",
			},
		},
		"required":             []any{"name", "subtopics", "category", "related_topics"},
		"additionalProperties": false,
	},
}

// LessonSchema defines the JSON schema for a subtopic lesson.
var LessonSchema = &llm.Schema{
	Name:        "subtopic-lesson",
	Description: "A short lesson introducing one subtopic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overview": map[string]any{
				"type":        "string",
				"description": "Plain explanation of the subtopic (4-6 sentences)",
			},
			"key_facts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "3-6 facts the learner should remember",
			},
			"misconceptions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-3 common misunderstandings and why they are wrong",
			},
			"connections": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-3 links to other subtopics or ideas",
			},
		},
		"required":             []any{"overview", "key_facts", "misconceptions", "connections"},
		"additionalProperties": false,
	},
}

var questionItem = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"subtopic": map[string]any{
			"type":        "string",
			"description": "Exactly one of the listed subtopic names",
		},
		"question": map[string]any{
			"type":        "string",
			"description": "The question shown to the learner",
		},
		"format": map[string]any{
			"type": "string",
			"enum": []any{string(store.FormatMultipleChoice), string(store.FormatFreeResponse)},
		},
		"choices": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Exactly 4 options for multiple_choice. Empty array for free_response.",
		},
		"correct_answer": map[string]any{
			"type":        "string",
			"description": "For multiple_choice, the exact text of the correct option",
		},
		"acceptable_answers": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Other phrasings accepted for free_response. Empty for multiple_choice.",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "One or two sentences on why the answer is correct",
		},
		"difficulty": map[string]any{
			"type":    "integer",
			"minimum": 1,
			"maximum": 5,
		},
	},
	"required":             []any{"subtopic", "question", "format", "choices", "correct_answer", "acceptable_answers", "explanation", "difficulty"},
	"additionalProperties": false,
}

// QuestionBatchSchema defines the JSON schema for a batch of quiz questions.
var QuestionBatchSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "A batch of quiz questions with answers and explanations",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionItem,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// JudgeSchema defines the JSON schema for answer judgments.
var JudgeSchema = &llm.Schema{
	Name:        "answer-judgment",
	Description: "Whether a learner's free-text answer is acceptable",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"acceptable": map[string]any{"type": "boolean"},
			"reason": map[string]any{
				"type":        "string",
				"description": "One short sentence",
			},
		},
		"required":             []any{"acceptable", "reason"},
		"additionalProperties": false,
	},
}
