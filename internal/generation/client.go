package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"exam-service/internal/models"
)

// Request is the question generation contract: one question for a topic at
// a difficulty tier.
type Request struct {
	Topic               string `json:"topic"`
	Difficulty          string `json:"difficulty"`
	QuestionType        string `json:"question_type"`
	UseHospitalPolicies bool   `json:"use_hospital_policies"`
}

// Client calls the question generation service. Generation has no side
// effects on this service, so a failed call is always safe to retry.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Generate(ctx context.Context, req Request) (*models.GeneratedQuestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	url := c.baseURL + "/generate-question-with-skills-and-policies"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generation service returned %s: %s", resp.Status, snippet)
	}

	var question models.GeneratedQuestion
	if err := json.NewDecoder(resp.Body).Decode(&question); err != nil {
		return nil, fmt.Errorf("decode generated question: %w", err)
	}
	if question.Data.Question == "" || question.Data.CorrectAnswer == "" {
		return nil, fmt.Errorf("generation service returned an incomplete question")
	}
	return &question, nil
}
