package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"exam-service/internal/adaptive"
	"exam-service/internal/config"
	"exam-service/internal/exam"
	"exam-service/internal/generation"
	"exam-service/internal/models"
	"exam-service/internal/profile"
	"exam-service/internal/repository"
)

var (
	ErrLearnerRequired   = errors.New("learner id is required")
	ErrInvalidMode       = errors.New("mode must be practice, adaptive or timed")
	ErrQuestionCount     = errors.New("total questions must be at least 1")
	ErrSessionNotFound   = errors.New("exam session not found")
	ErrResultNotFound    = errors.New("exam result not found")
	ErrSessionFinished   = errors.New("exam session is no longer in progress")
	ErrAnswerOutstanding = errors.New("previous question has not been answered")
	ErrNoQuestionPending = errors.New("no question is awaiting an answer")
	ErrAnswerRequired    = errors.New("answer must not be empty")
	ErrOrdinalMismatch   = errors.New("question index does not match the pending question")
)

// SessionStore persists exam sessions. The append/record/complete methods
// are guarded writes: they return repository.ErrConflict when the session
// state no longer matches, which is how stale and duplicate operations are
// rejected.
type SessionStore interface {
	Create(ctx context.Context, session *models.ExamSession) error
	FindByID(ctx context.Context, id string) (*models.ExamSession, error)
	FindByLearner(ctx context.Context, learnerID string) ([]models.ExamSession, error)
	AppendQuestion(ctx context.Context, id string, q models.QuestionRecord, tier string) error
	RecordAnswer(ctx context.Context, id string, ordinal int, userAnswer string, isCorrect bool, timeSpent int, answeredAt time.Time) error
	Complete(ctx context.Context, id string, endTime time.Time, score float64, completionType string) error
	Abandon(ctx context.Context, id string, endTime time.Time) error
}

type ResultStore interface {
	Create(ctx context.Context, result *models.ExamResult) error
	FindBySession(ctx context.Context, sessionID string) (*models.ExamResult, error)
	FindByLearner(ctx context.Context, learnerID string) ([]models.ExamResult, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, req generation.Request) (*models.GeneratedQuestion, error)
}

type ProfileService interface {
	RecordAttempt(ctx context.Context, learnerID string, attempt profile.Attempt) error
	RecordExam(ctx context.Context, learnerID string, record profile.ExamRecord) error
	WeakTopics(ctx context.Context, learnerID string) ([]string, error)
}

type EventSink interface {
	Publish(eventType string, payload interface{}) error
}

type ExamService struct {
	store     SessionStore
	results   ResultStore
	generator QuestionGenerator
	profiles  ProfileService
	events    EventSink
	policy    *adaptive.Policy
	registry  *exam.Registry
	cfg       config.ExamConfig
}

func NewExamService(store SessionStore, results ResultStore, generator QuestionGenerator, profiles ProfileService, events EventSink, cfg config.ExamConfig) *ExamService {
	policy := adaptive.NewPolicy(&adaptive.Config{
		WarmupQuestions: cfg.WarmupQuestions,
		RaiseThreshold:  cfg.RaiseThreshold,
		DropThreshold:   cfg.DropThreshold,
	})
	return &ExamService{
		store:     store,
		results:   results,
		generator: generator,
		profiles:  profiles,
		events:    events,
		policy:    policy,
		registry:  exam.NewRegistry(),
		cfg:       cfg,
	}
}

// CreateSession opens a new exam session. Timed sessions also start their
// countdown; its warnings and forced completion run off the session's own
// goroutine, not off request traffic.
func (s *ExamService) CreateSession(ctx context.Context, learnerID, mode string, totalQuestions, timeLimitMinutes int, focusTopic string) (*models.ExamSession, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrLearnerRequired
	}
	if !adaptive.Mode(mode).Valid() {
		return nil, ErrInvalidMode
	}
	if totalQuestions < 1 {
		return nil, ErrQuestionCount
	}

	now := time.Now().UTC()
	session := &models.ExamSession{
		ID:             fmt.Sprintf("exam_%s_%s", learnerID, now.Format("20060102_150405")),
		LearnerID:      learnerID,
		Mode:           mode,
		TotalQuestions: totalQuestions,
		FocusTopic:     focusTopic,
		Questions:      []models.QuestionRecord{},
		CurrentTier:    string(adaptive.TierIntermediate),
		Phase:          models.PhaseAwaitingQuestion,
		StartTime:      now,
		Status:         models.StatusInProgress,
	}

	if mode == string(adaptive.ModeTimed) {
		if timeLimitMinutes <= 0 {
			timeLimitMinutes = s.cfg.TimedLimitMinutes
		}
		session.TimeLimitMinutes = timeLimitMinutes
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if session.TimeLimitMinutes > 0 {
		s.startTimer(session.ID, session.TimeLimitMinutes)
	}

	s.publish("exam.session.created", map[string]interface{}{
		"session_id":      session.ID,
		"learner_id":      session.LearnerID,
		"mode":            session.Mode,
		"total_questions": session.TotalQuestions,
	})
	return session, nil
}

func (s *ExamService) startTimer(sessionID string, limitMinutes int) {
	marks := []int{s.cfg.WarningSeconds, s.cfg.FinalWarningSeconds}
	s.registry.StartCountdown(sessionID, time.Duration(limitMinutes)*time.Minute, marks, exam.Hooks{
		OnWarning: func(id string, remaining int) {
			s.publish("exam.timer.warning", map[string]interface{}{
				"session_id":        id,
				"remaining_seconds": remaining,
			})
		},
		OnExpired: func(id string) {
			if _, err := s.CompleteSession(context.Background(), id, models.CompletionTimeExpired); err != nil && !errors.Is(err, ErrSessionFinished) {
				log.Printf("forced completion of %s failed: %v", id, err)
			}
		},
	})
}

// NextQuestion selects a tier and topic, generates a question, and attaches
// it to the session. A generation failure leaves the session exactly where
// it was, so the client can simply ask again.
func (s *ExamService) NextQuestion(ctx context.Context, sessionID string) (*models.QuestionRecord, error) {
	unlock := s.registry.Lock(sessionID)
	defer unlock()

	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != models.PhaseAwaitingQuestion {
		return nil, ErrAnswerOutstanding
	}
	if len(session.Questions) >= session.TotalQuestions {
		return nil, ErrSessionFinished
	}

	tier := s.policy.NextTier(outcomes(session), adaptive.Mode(session.Mode), adaptive.Tier(session.CurrentTier))
	topic := s.policy.PickTopic(session.FocusTopic)

	generated, err := s.generator.Generate(ctx, generation.Request{
		Topic:               topic,
		Difficulty:          string(tier),
		QuestionType:        s.cfg.QuestionType,
		UseHospitalPolicies: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	ordinal := len(session.Questions) + 1
	record := models.QuestionRecord{
		Ordinal:       ordinal,
		QuestionID:    fmt.Sprintf("q_%s_%d", session.ID, ordinal),
		Topic:         topic,
		Difficulty:    string(tier),
		QuestionType:  s.cfg.QuestionType,
		SkillIDs:      skillIDs(generated, topic),
		Prompt:        generated.Data.Question,
		Options:       generated.Data.Options,
		CorrectAnswer: generated.Data.CorrectAnswer,
		Rationale:     generated.Data.Rationale,
	}

	if err := s.store.AppendQuestion(ctx, session.ID, record, string(tier)); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAnswerOutstanding
		}
		return nil, fmt.Errorf("attach question: %w", err)
	}

	s.publish("exam.question.issued", map[string]interface{}{
		"session_id":  session.ID,
		"question_id": record.QuestionID,
		"ordinal":     record.Ordinal,
		"topic":       record.Topic,
		"difficulty":  record.Difficulty,
	})
	return &record, nil
}

// Feedback is the per-answer grading detail. It is withheld in timed mode,
// where learners only see results after the exam ends.
type Feedback struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Rationale     string `json:"rationale,omitempty"`
}

type SubmitResult struct {
	Recorded  bool      `json:"recorded"`
	Completed bool      `json:"completed"`
	Feedback  *Feedback `json:"feedback,omitempty"`
}

// SubmitAnswer grades the pending question. questionIndex is the zero-based
// index the client received with the question. If the persist fails nothing
// is counted and the same submission can be retried.
func (s *ExamService) SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, answer string, timeSpentSeconds int) (*SubmitResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrAnswerRequired
	}

	unlock := s.registry.Lock(sessionID)
	defer unlock()

	session, err := s.getInProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != models.PhaseAwaitingAnswer || len(session.Questions) == 0 {
		return nil, ErrNoQuestionPending
	}

	ordinal := questionIndex + 1
	if ordinal != len(session.Questions) {
		return nil, ErrOrdinalMismatch
	}

	question := session.Questions[ordinal-1]
	isCorrect := answer == question.CorrectAnswer
	answeredAt := time.Now().UTC()

	if err := s.store.RecordAnswer(ctx, session.ID, ordinal, answer, isCorrect, timeSpentSeconds, answeredAt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNoQuestionPending
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	if err := s.profiles.RecordAttempt(ctx, session.LearnerID, profile.Attempt{
		QuestionID:       question.QuestionID,
		SkillIDs:         question.SkillIDs,
		Topic:            question.Topic,
		Difficulty:       question.Difficulty,
		QuestionType:     question.QuestionType,
		Correct:          isCorrect,
		TimeSpentSeconds: timeSpentSeconds,
		ExamSessionID:    session.ID,
	}); err != nil {
		log.Printf("record attempt for %s: %v", session.ID, err)
	}

	s.publish("exam.answer.submitted", map[string]interface{}{
		"session_id":  session.ID,
		"question_id": question.QuestionID,
		"ordinal":     ordinal,
		"correct":     isCorrect,
	})

	result := &SubmitResult{Recorded: true}
	if session.Mode != string(adaptive.ModeTimed) {
		result.Feedback = &Feedback{
			IsCorrect:     isCorrect,
			CorrectAnswer: question.CorrectAnswer,
			Rationale:     question.Rationale,
		}
	}

	if ordinal >= session.TotalQuestions {
		if err := s.finish(ctx, session.ID, models.CompletionAllQuestions); err != nil && !errors.Is(err, ErrSessionFinished) {
			return nil, err
		}
		result.Completed = true
	}
	return result, nil
}

// CompleteSession ends a session before (or at) its natural end. Completion
// is exactly-once: whichever of the final answer, the timer, or a manual
// request gets there first wins, and the rest see ErrSessionFinished.
func (s *ExamService) CompleteSession(ctx context.Context, sessionID, completionType string) (*models.ExamResult, error) {
	unlock := s.registry.Lock(sessionID)
	defer unlock()

	if err := s.finish(ctx, sessionID, completionType); err != nil {
		return nil, err
	}
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildResult(session), nil
}

// finish closes the session and records the result. Callers hold the
// session lock.
func (s *ExamService) finish(ctx context.Context, sessionID, completionType string) error {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.Status != models.StatusInProgress {
		return ErrSessionFinished
	}

	// The denominator is every issued question, so questions left unanswered
	// at a forced completion count against the score.
	endTime := time.Now().UTC()
	issued := len(session.Questions)
	correct := session.CorrectCount()
	score := 0.0
	if issued > 0 {
		score = float64(correct) / float64(issued) * 100
	}

	if err := s.store.Complete(ctx, sessionID, endTime, score, completionType); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrSessionFinished
		}
		return fmt.Errorf("complete session: %w", err)
	}
	s.registry.Stop(sessionID)

	session.Status = models.StatusCompleted
	session.EndTime = &endTime
	session.Score = score
	session.CompletionType = completionType

	result := buildResult(session)
	if err := s.results.Create(ctx, result); err != nil {
		log.Printf("persist result for %s: %v", sessionID, err)
	}
	if err := s.profiles.RecordExam(ctx, session.LearnerID, profile.ExamRecord{
		ExamID:          session.ID,
		Mode:            session.Mode,
		TotalQuestions:  session.TotalQuestions,
		CorrectAnswers:  correct,
		Score:           score,
		DurationMinutes: result.DurationMinutes,
		TopicsTested:    result.TopicsTested,
		SkillsTested:    result.SkillsTested,
	}); err != nil {
		log.Printf("record exam for %s: %v", sessionID, err)
	}

	s.publish("exam.session.completed", map[string]interface{}{
		"session_id":      session.ID,
		"learner_id":      session.LearnerID,
		"score":           score,
		"completion_type": completionType,
	})
	return nil
}

// AbandonSession drops an in-progress session without scoring it.
func (s *ExamService) AbandonSession(ctx context.Context, sessionID string) error {
	unlock := s.registry.Lock(sessionID)
	defer unlock()

	if _, err := s.getInProgress(ctx, sessionID); err != nil {
		return err
	}
	if err := s.store.Abandon(ctx, sessionID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrSessionFinished
		}
		return fmt.Errorf("abandon session: %w", err)
	}
	s.registry.Stop(sessionID)

	s.publish("exam.session.abandoned", map[string]interface{}{"session_id": sessionID})
	return nil
}

// Status reports the live state of a session.
type Status struct {
	SessionID        string `json:"session_id"`
	Status           string `json:"status"`
	Phase            string `json:"phase"`
	Mode             string `json:"mode"`
	CurrentTier      string `json:"current_tier"`
	QuestionsIssued  int    `json:"questions_issued"`
	QuestionsTotal   int    `json:"questions_total"`
	Answered         int    `json:"answered"`
	RemainingSeconds *int   `json:"remaining_seconds,omitempty"`
}

func (s *ExamService) Status(ctx context.Context, sessionID string) (*Status, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	status := &Status{
		SessionID:       session.ID,
		Status:          session.Status,
		Phase:           session.Phase,
		Mode:            session.Mode,
		CurrentTier:     session.CurrentTier,
		QuestionsIssued: len(session.Questions),
		QuestionsTotal:  session.TotalQuestions,
		Answered:        session.AnsweredCount(),
	}
	if remaining, ok := s.registry.Remaining(sessionID); ok {
		status.RemainingSeconds = &remaining
	}
	return status, nil
}

func (s *ExamService) Session(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *ExamService) Sessions(ctx context.Context, learnerID string) ([]models.ExamSession, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrLearnerRequired
	}
	return s.store.FindByLearner(ctx, learnerID)
}

// Summary builds the detailed post-session report. All three difficulty
// tiers appear in the breakdown even when no question used them, and issued
// but unanswered questions count as incorrect.
func (s *ExamService) Summary(ctx context.Context, sessionID string) (*models.ExamSummary, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &models.ExamSummary{
		SessionID:             session.ID,
		Mode:                  session.Mode,
		Score:                 session.Score,
		Correct:               session.CorrectCount(),
		Total:                 len(session.Questions),
		DurationMinutes:       durationMinutes(session),
		DifficultyPerformance: map[string]models.Breakdown{},
		SkillPerformance:      map[string]models.Breakdown{},
		TopicPerformance:      map[string]models.Breakdown{},
	}
	for _, tier := range []adaptive.Tier{adaptive.TierBeginner, adaptive.TierIntermediate, adaptive.TierAdvanced} {
		summary.DifficultyPerformance[string(tier)] = models.Breakdown{}
	}

	for _, q := range session.Questions {
		correct := q.IsCorrect != nil && *q.IsCorrect
		tally(summary.DifficultyPerformance, q.Difficulty, correct)
		tally(summary.TopicPerformance, q.Topic, correct)
		for _, skill := range q.SkillIDs {
			tally(summary.SkillPerformance, skill, correct)
		}
	}
	return summary, nil
}

// CreateFocusedSession starts a practice session targeting the learner's
// weakest topic per their profile. Without profile data it falls back to an
// unfocused practice session.
func (s *ExamService) CreateFocusedSession(ctx context.Context, learnerID string, totalQuestions int) (*models.ExamSession, error) {
	if totalQuestions < 1 {
		totalQuestions = 10
	}

	focus := ""
	topics, err := s.profiles.WeakTopics(ctx, learnerID)
	if err != nil {
		log.Printf("weak topics for %s: %v", learnerID, err)
	} else if len(topics) > 0 {
		focus = topics[0]
	}

	return s.CreateSession(ctx, learnerID, string(adaptive.ModePractice), totalQuestions, 0, focus)
}

func (s *ExamService) Results(ctx context.Context, learnerID string) ([]models.ExamResult, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrLearnerRequired
	}
	return s.results.FindByLearner(ctx, learnerID)
}

// Result returns the persisted record of a completed session.
func (s *ExamService) Result(ctx context.Context, sessionID string) (*models.ExamResult, error) {
	result, err := s.results.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *ExamService) getInProgress(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusInProgress {
		return nil, ErrSessionFinished
	}
	return session, nil
}

func (s *ExamService) publish(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(eventType, payload); err != nil {
		log.Printf("publish %s: %v", eventType, err)
	}
}

func outcomes(session *models.ExamSession) []adaptive.Outcome {
	var history []adaptive.Outcome
	for _, q := range session.Questions {
		if q.IsCorrect != nil {
			history = append(history, adaptive.Outcome{Correct: *q.IsCorrect})
		}
	}
	return history
}

// skillIDs extracts the generator's skill tags, falling back to a synthetic
// topic-derived skill when the generator tagged nothing.
func skillIDs(generated *models.GeneratedQuestion, topic string) []string {
	ids := make([]string, 0, len(generated.SkillTags))
	for _, tag := range generated.SkillTags {
		if tag.SkillID != "" {
			ids = append(ids, tag.SkillID)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, "topic_"+strings.ReplaceAll(strings.ToLower(topic), " ", "_"))
	}
	return ids
}

func buildResult(session *models.ExamSession) *models.ExamResult {
	completedAt := time.Now().UTC()
	if session.EndTime != nil {
		completedAt = *session.EndTime
	}

	topicSeen := map[string]bool{}
	skillSeen := map[string]bool{}
	topics := []string{}
	skills := []string{}
	for _, q := range session.Questions {
		if !topicSeen[q.Topic] {
			topicSeen[q.Topic] = true
			topics = append(topics, q.Topic)
		}
		for _, skill := range q.SkillIDs {
			if !skillSeen[skill] {
				skillSeen[skill] = true
				skills = append(skills, skill)
			}
		}
	}

	return &models.ExamResult{
		ID:              "result_" + session.ID,
		SessionID:       session.ID,
		LearnerID:       session.LearnerID,
		Mode:            session.Mode,
		TotalQuestions:  session.TotalQuestions,
		CorrectAnswers:  session.CorrectCount(),
		Score:           session.Score,
		DurationMinutes: durationMinutes(session),
		CompletionType:  session.CompletionType,
		TopicsTested:    topics,
		SkillsTested:    skills,
		CompletedAt:     completedAt,
	}
}

func durationMinutes(session *models.ExamSession) float64 {
	end := time.Now().UTC()
	if session.EndTime != nil {
		end = *session.EndTime
	}
	return end.Sub(session.StartTime).Minutes()
}

func tally(m map[string]models.Breakdown, key string, correct bool) {
	b := m[key]
	b.Total++
	if correct {
		b.Correct++
	}
	m[key] = b
}
