package main

import (
	"log"
	"net/http"
	"time"

	"exam-service/internal/config"
	"exam-service/internal/db"
	"exam-service/internal/event"
	"exam-service/internal/generation"
	"exam-service/internal/handlers"
	"exam-service/internal/profile"
	"exam-service/internal/repository"
	"exam-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoDB.URI)
	defer db.Disconnect()

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, exam events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	database := db.Client.Database(cfg.MongoDB.Database)

	sessionRepo := repository.NewSessionRepository(database)
	resultRepo := repository.NewResultRepository(database)
	generationClient := generation.NewClient(cfg.Collaborators.GenerationURL)
	profileClient := profile.NewClient(cfg.Collaborators.ProfileURL)

	// interface conversion: a nil *EventPublisher must stay a nil EventSink
	var events service.EventSink
	if publisher != nil {
		events = publisher
	}

	examService := service.NewExamService(sessionRepo, resultRepo, generationClient, profileClient, events, cfg.Exam)
	examHandler := handlers.NewExamHandler(examService)

	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if c.GetHeader("X-Learner-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_LEARNER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})
	{
		exams := api.Group("/exam")
		{
			exams.POST("", examHandler.CreateExam)
			exams.GET("/:id", examHandler.GetExam)
			exams.GET("/:id/status", examHandler.GetStatus)
			exams.GET("/:id/summary", examHandler.GetSummary)
			exams.GET("/:id/result", examHandler.GetResult)
			exams.POST("/:id/question", examHandler.NextQuestion)
			exams.POST("/:id/submit", examHandler.SubmitAnswer)
			exams.POST("/:id/complete", examHandler.CompleteExam)
			exams.POST("/:id/abandon", examHandler.AbandonExam)
		}

		learners := api.Group("/learner")
		{
			learners.GET("/:learnerId/exams", examHandler.ListLearnerExams)
			learners.GET("/:learnerId/results", examHandler.ListLearnerResults)
			learners.POST("/:learnerId/focused-exam", examHandler.CreateFocusedExam)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "exam-service"})
	})

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
