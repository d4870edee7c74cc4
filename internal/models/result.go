package models

import "time"

// ExamResult is the persisted record of a completed session.
type ExamResult struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	SessionID       string    `bson:"session_id" json:"session_id"`
	LearnerID       string    `bson:"learner_id" json:"learner_id"`
	Mode            string    `bson:"mode" json:"mode"`
	TotalQuestions  int       `bson:"total_questions" json:"total_questions"`
	CorrectAnswers  int       `bson:"correct_answers" json:"correct_answers"`
	Score           float64   `bson:"score" json:"score"`
	DurationMinutes float64   `bson:"duration_minutes" json:"duration_minutes"`
	CompletionType  string    `bson:"completion_type" json:"completion_type"`
	TopicsTested    []string  `bson:"topics_tested" json:"topics_tested"`
	SkillsTested    []string  `bson:"skills_tested" json:"skills_tested"`
	CompletedAt     time.Time `bson:"completed_at" json:"completed_at"`
}

// Breakdown is a correct/total pair for one slice of a summary.
type Breakdown struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ExamSummary is the detailed post-session report: overall score plus
// per-difficulty, per-skill and per-topic performance.
type ExamSummary struct {
	SessionID             string               `json:"session_id"`
	Mode                  string               `json:"mode"`
	Score                 float64              `json:"score"`
	Correct               int                  `json:"correct"`
	Total                 int                  `json:"total"`
	DurationMinutes       float64              `json:"duration_minutes"`
	DifficultyPerformance map[string]Breakdown `json:"difficulty_performance"`
	SkillPerformance      map[string]Breakdown `json:"skill_performance"`
	TopicPerformance      map[string]Breakdown `json:"topic_performance"`
}
