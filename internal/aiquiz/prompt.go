package aiquiz

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a quiz generator for a study application. You create multiple-choice questions strictly from the study material provided by the user.

General rules:
1. Base every question only on the provided material. Never invent facts that the material does not support.
2. Each question has exactly one correct answer.
3. Each question must have:
   - "question": the question statement
   - "options": exactly 4 plausible alternatives, including the correct one
   - "correct_answer": the zero-based index of the correct option (0 to 3)
   - "explanation": a brief, clear explanation of why the answer is correct

Quality guidelines:
- Do not make the correct answer obvious. All options should be similar in length and structure.
- Use plausible distractors: wrong but reasonable answers.
- Difficulty:
  - easy: direct recall of facts stated in the material.
  - medium: application or interpretation of the material.
  - hard: analysis, deduction, or correlating ideas across the material.
- Vary the question style.
- Never reveal the answer in the question statement.
- Respond with a pure JSON array and nothing else.

Expected JSON format:

[
  {
    "question": "...",
    "options": ["...", "...", "...", "..."],
    "correct_answer": 2,
    "explanation": "..."
  }
]`

// BuildUserPrompt assembles the user turn for one generation call. The
// grounding text is the study material the questions must be based on.
func BuildUserPrompt(settings Settings, grounding string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d multiple-choice questions with difficulty %q from the study material below.\n",
		settings.QuestionCount, settings.Difficulty)
	if len(settings.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus on these areas: %s.\n", strings.Join(settings.FocusAreas, ", "))
	}
	b.WriteString("\nStudy material:\n\"\"\"\n")
	b.WriteString(grounding)
	b.WriteString("\n\"\"\"")

	return b.String()
}

const titleSystemPrompt = `You name quizzes for a study application. Given study material, respond with a short descriptive title for a quiz about it: at most 8 words, no quotes, no trailing punctuation, plain text only.`

func BuildTitlePrompt(grounding string) string {
	const maxTitleContext = 2000
	if len(grounding) > maxTitleContext {
		grounding = grounding[:maxTitleContext]
	}
	return "Name a quiz about this study material:\n\"\"\"\n" + grounding + "\n\"\"\""
}
