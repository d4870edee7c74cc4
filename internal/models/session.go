package models

import "time"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Question-cycle phases within an in-progress session. The store only
// accepts an append while awaiting a question and an answer while awaiting
// an answer, which is what keeps one question in flight at a time.
const (
	PhaseAwaitingQuestion = "awaiting_question"
	PhaseAwaitingAnswer   = "awaiting_answer"
)

const (
	CompletionAllQuestions = "all_questions"
	CompletionTimeExpired  = "time_expired"
	CompletionManual       = "manual"
	CompletionAbandoned    = "abandoned"
)

// QuestionRecord is one question's lifecycle within a session. Ordinal is
// 1-based and sequential; the external submit API carries a zero-based index.
type QuestionRecord struct {
	Ordinal          int        `bson:"ordinal" json:"ordinal"`
	QuestionID       string     `bson:"question_id" json:"question_id"`
	Topic            string     `bson:"topic" json:"topic"`
	Difficulty       string     `bson:"difficulty" json:"difficulty"`
	QuestionType     string     `bson:"question_type" json:"question_type"`
	SkillIDs         []string   `bson:"skill_ids" json:"skill_ids"`
	Prompt           string     `bson:"prompt" json:"prompt"`
	Options          []string   `bson:"options" json:"options"`
	CorrectAnswer    string     `bson:"correct_answer" json:"correct_answer"`
	Rationale        string     `bson:"rationale" json:"rationale"`
	UserAnswer       string     `bson:"user_answer,omitempty" json:"user_answer,omitempty"`
	IsCorrect        *bool      `bson:"is_correct,omitempty" json:"is_correct,omitempty"`
	TimeSpentSeconds int        `bson:"time_spent_seconds,omitempty" json:"time_spent_seconds,omitempty"`
	AnsweredAt       *time.Time `bson:"answered_at,omitempty" json:"answered_at,omitempty"`
}

type ExamSession struct {
	ID               string           `bson:"_id" json:"session_id"`
	LearnerID        string           `bson:"learner_id" json:"learner_id"`
	Mode             string           `bson:"mode" json:"mode"`
	TotalQuestions   int              `bson:"total_questions" json:"total_questions"`
	TimeLimitMinutes int              `bson:"time_limit_minutes,omitempty" json:"time_limit_minutes,omitempty"`
	FocusTopic       string           `bson:"focus_topic,omitempty" json:"focus_topic,omitempty"`
	Questions        []QuestionRecord `bson:"questions" json:"questions"`
	CurrentTier      string           `bson:"current_tier" json:"current_tier"`
	Phase            string           `bson:"phase" json:"phase"`
	StartTime        time.Time        `bson:"start_time" json:"start_time"`
	EndTime          *time.Time       `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Score            float64          `bson:"score" json:"score"`
	Status           string           `bson:"status" json:"status"`
	CompletionType   string           `bson:"completion_type,omitempty" json:"completion_type,omitempty"`
}

// AnsweredCount reports how many questions have a recorded answer.
func (s *ExamSession) AnsweredCount() int {
	n := 0
	for _, q := range s.Questions {
		if q.IsCorrect != nil {
			n++
		}
	}
	return n
}

// CorrectCount reports how many recorded answers were correct.
func (s *ExamSession) CorrectCount() int {
	n := 0
	for _, q := range s.Questions {
		if q.IsCorrect != nil && *q.IsCorrect {
			n++
		}
	}
	return n
}
