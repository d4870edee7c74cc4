package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"exam-service/internal/models"
)

var (
	// ErrNotFound is returned when no document matches the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a guarded update matched no document,
	// meaning the session moved on (or finished) since it was read.
	ErrConflict = errors.New("session state conflict")
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("exam_sessions")}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.ExamSession) error {
	_, err := r.Col.InsertOne(ctx, session)
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ExamSession, error) {
	var session models.ExamSession
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindByLearner(ctx context.Context, learnerID string) ([]models.ExamSession, error) {
	cursor, err := r.Col.Find(ctx, bson.M{"learner_id": learnerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.ExamSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendQuestion attaches the next issued question. The filter requires the
// session to still be in progress, waiting for a question, and to hold
// exactly ordinal-1 questions, so a retried or concurrent call cannot issue
// a duplicate ordinal.
func (r *SessionRepository) AppendQuestion(ctx context.Context, id string, q models.QuestionRecord, tier string) error {
	filter := bson.M{
		"_id":       id,
		"status":    models.StatusInProgress,
		"phase":     models.PhaseAwaitingQuestion,
		"questions": bson.M{"$size": q.Ordinal - 1},
	}
	update := bson.M{
		"$push": bson.M{"questions": q},
		"$set": bson.M{
			"phase":        models.PhaseAwaitingAnswer,
			"current_tier": tier,
		},
	}

	result, err := r.Col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// RecordAnswer grades the pending question in place. The filter pins the
// exact ordinal still awaiting an answer, so a duplicate submission after a
// successful write matches nothing and the counters stay untouched.
func (r *SessionRepository) RecordAnswer(ctx context.Context, id string, ordinal int, userAnswer string, isCorrect bool, timeSpent int, answeredAt time.Time) error {
	field := fmt.Sprintf("questions.%d", ordinal-1)
	filter := bson.M{
		"_id":              id,
		"status":           models.StatusInProgress,
		"phase":            models.PhaseAwaitingAnswer,
		field + ".ordinal": ordinal,
	}
	update := bson.M{
		"$set": bson.M{
			field + ".user_answer":        userAnswer,
			field + ".is_correct":         isCorrect,
			field + ".time_spent_seconds": timeSpent,
			field + ".answered_at":        answeredAt,
			"phase":                       models.PhaseAwaitingQuestion,
		},
	}

	result, err := r.Col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// Complete closes the session. Only an in-progress session matches, so
// concurrent completion paths (final answer, timer expiry, manual) resolve
// to exactly one winner.
func (r *SessionRepository) Complete(ctx context.Context, id string, endTime time.Time, score float64, completionType string) error {
	filter := bson.M{"_id": id, "status": models.StatusInProgress}
	update := bson.M{
		"$set": bson.M{
			"status":          models.StatusCompleted,
			"end_time":        endTime,
			"score":           score,
			"completion_type": completionType,
		},
	}

	result, err := r.Col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (r *SessionRepository) Abandon(ctx context.Context, id string, endTime time.Time) error {
	filter := bson.M{"_id": id, "status": models.StatusInProgress}
	update := bson.M{
		"$set": bson.M{
			"status":          models.StatusAbandoned,
			"end_time":        endTime,
			"completion_type": models.CompletionAbandoned,
		},
	}

	result, err := r.Col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
