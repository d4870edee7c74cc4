package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Attempt is one answered question as reported to the learner profile
// service.
type Attempt struct {
	QuestionID       string   `json:"question_id"`
	SkillIDs         []string `json:"skill_ids"`
	Topic            string   `json:"topic"`
	Difficulty       string   `json:"difficulty"`
	QuestionType     string   `json:"question_type"`
	Correct          bool     `json:"correct"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
	ExamSessionID    string   `json:"exam_session_id"`
}

// ExamRecord summarizes a completed exam for the learner's history.
type ExamRecord struct {
	ExamID          string   `json:"exam_id"`
	Mode            string   `json:"mode"`
	TotalQuestions  int      `json:"total_questions"`
	CorrectAnswers  int      `json:"correct_answers"`
	Score           float64  `json:"score"`
	DurationMinutes float64  `json:"duration_minutes"`
	TopicsTested    []string `json:"topics_tested"`
	SkillsTested    []string `json:"skills_tested"`
}

// Client calls the learner profile service. Attempt and exam recording are
// best-effort from the controller's point of view; the caller decides how
// to treat failures.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) RecordAttempt(ctx context.Context, learnerID string, attempt Attempt) error {
	url := fmt.Sprintf("%s/api/learner/%s/attempt", c.baseURL, learnerID)
	return c.post(ctx, url, attempt)
}

func (c *Client) RecordExam(ctx context.Context, learnerID string, record ExamRecord) error {
	url := fmt.Sprintf("%s/api/learner/%s/exam-record", c.baseURL, learnerID)
	return c.post(ctx, url, record)
}

// WeakTopics returns the learner's weakest topics, strongest need first.
func (c *Client) WeakTopics(ctx context.Context, learnerID string) ([]string, error) {
	url := fmt.Sprintf("%s/api/learner/%s/weak-topics", c.baseURL, learnerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile service returned %s", resp.Status)
	}

	var payload struct {
		WeakTopics []struct {
			Topic string `json:"topic"`
		} `json:"weak_topics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weak topics: %w", err)
	}

	topics := make([]string, 0, len(payload.WeakTopics))
	for _, wt := range payload.WeakTopics {
		topics = append(topics, wt.Topic)
	}
	return topics, nil
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("profile service: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile service returned %s", resp.Status)
	}
	return nil
}
