package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"exam-service/internal/models"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("exam_results")}
}

func (r *ResultRepository) Create(ctx context.Context, result *models.ExamResult) error {
	_, err := r.Col.InsertOne(ctx, result)
	return err
}

func (r *ResultRepository) FindBySession(ctx context.Context, sessionID string) (*models.ExamResult, error) {
	var result models.ExamResult
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindByLearner(ctx context.Context, learnerID string) ([]models.ExamResult, error) {
	cursor, err := r.Col.Find(ctx, bson.M{"learner_id": learnerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ExamResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
