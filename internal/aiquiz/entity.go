package aiquiz

// OptionsPerQuestion is fixed: every generated question carries exactly four
// alternatives.
const OptionsPerQuestion = 4

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Settings drive a single generation call.
type Settings struct {
	QuestionCount int        `json:"question_count"`
	Difficulty    Difficulty `json:"difficulty"`
	FocusAreas    []string   `json:"focus_areas,omitempty"`
}

// Candidate is one multiple-choice question as produced by the model.
// CorrectAnswer indexes Options.
type Candidate struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}
