package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"exam-service/internal/models"
	"exam-service/internal/service"
)

type ExamHandler struct {
	Service *service.ExamService
}

func NewExamHandler(svc *service.ExamService) *ExamHandler {
	return &ExamHandler{Service: svc}
}

type createExamRequest struct {
	LearnerID        string `json:"learner_id" binding:"required"`
	Mode             string `json:"mode" binding:"required"`
	TotalQuestions   int    `json:"total_questions" binding:"required"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	FocusTopic       string `json:"focus_topic"`
}

func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req createExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.Service.CreateSession(c.Request.Context(), req.LearnerID, req.Mode, req.TotalQuestions, req.TimeLimitMinutes, req.FocusTopic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionView(session))
}

func (h *ExamHandler) GetExam(c *gin.Context) {
	session, err := h.Service.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

func (h *ExamHandler) GetStatus(c *gin.Context) {
	status, err := h.Service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// NextQuestion issues the next question. The answer key stays server-side;
// clients get the prompt, options and the zero-based index they must echo
// back on submit.
func (h *ExamHandler) NextQuestion(c *gin.Context) {
	question, err := h.Service.NextQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question_index": question.Ordinal - 1,
		"question_id":    question.QuestionID,
		"topic":          question.Topic,
		"difficulty":     question.Difficulty,
		"question_type":  question.QuestionType,
		"prompt":         question.Prompt,
		"options":        question.Options,
	})
}

type submitAnswerRequest struct {
	QuestionIndex    *int   `json:"question_index" binding:"required"`
	Answer           string `json:"answer"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.Service.SubmitAnswer(c.Request.Context(), c.Param("id"), *req.QuestionIndex, req.Answer, req.TimeSpentSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) CompleteExam(c *gin.Context) {
	result, err := h.Service.CompleteSession(c.Request.Context(), c.Param("id"), models.CompletionManual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) AbandonExam(c *gin.Context) {
	if err := h.Service.AbandonSession(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusAbandoned})
}

func (h *ExamHandler) GetSummary(c *gin.Context) {
	summary, err := h.Service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ExamHandler) GetResult(c *gin.Context) {
	result, err := h.Service.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) ListLearnerResults(c *gin.Context) {
	results, err := h.Service.Results(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []models.ExamResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *ExamHandler) ListLearnerExams(c *gin.Context) {
	sessions, err := h.Service.Sessions(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessionView(&sessions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"exams": views})
}

type focusedExamRequest struct {
	TotalQuestions int `json:"total_questions"`
}

func (h *ExamHandler) CreateFocusedExam(c *gin.Context) {
	// The body is optional; an empty one takes the defaults.
	var req focusedExamRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.Service.CreateFocusedSession(c.Request.Context(), c.Param("learnerId"), req.TotalQuestions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionView(session))
}

// sessionView shapes a session for clients: question answer keys are never
// exposed while the session is in progress.
func sessionView(s *models.ExamSession) gin.H {
	view := gin.H{
		"session_id":      s.ID,
		"learner_id":      s.LearnerID,
		"mode":            s.Mode,
		"total_questions": s.TotalQuestions,
		"current_tier":    s.CurrentTier,
		"phase":           s.Phase,
		"status":          s.Status,
		"start_time":      s.StartTime,
		"answered":        s.AnsweredCount(),
	}
	if s.TimeLimitMinutes > 0 {
		view["time_limit_minutes"] = s.TimeLimitMinutes
	}
	if s.FocusTopic != "" {
		view["focus_topic"] = s.FocusTopic
	}
	if s.Status != models.StatusInProgress {
		view["score"] = s.Score
		view["completion_type"] = s.CompletionType
		view["end_time"] = s.EndTime
	}
	return view
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLearnerRequired),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrQuestionCount),
		errors.Is(err, service.ErrAnswerRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrResultNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionFinished),
		errors.Is(err, service.ErrAnswerOutstanding),
		errors.Is(err, service.ErrNoQuestionPending),
		errors.Is(err, service.ErrOrdinalMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}
