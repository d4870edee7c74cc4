package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Server        ServerConfig
	MongoDB       MongoDBConfig
	RabbitMQ      RabbitMQConfig
	Collaborators CollaboratorConfig
	Exam          ExamConfig
}

type ServerConfig struct {
	Port string
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

// CollaboratorConfig holds the base URLs of the external services the
// exam controller talks to.
type CollaboratorConfig struct {
	GenerationURL string
	ProfileURL    string
}

// ExamConfig carries the adaptive-policy and timer defaults. The thresholds
// are tunable per deployment; clients rely on the 3 / 0.70 / 0.50 defaults.
type ExamConfig struct {
	WarmupQuestions     int
	RaiseThreshold      float64
	DropThreshold       float64
	TimedLimitMinutes   int
	WarningSeconds      int
	FinalWarningSeconds int
	QuestionType        string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "6660"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("EXAM_SERVICE_MONGO_DB", "exam_service"),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "exam.events"),
		},
		Collaborators: CollaboratorConfig{
			GenerationURL: getEnv("QUESTION_GENERATION_URL", "http://localhost:10000"),
			ProfileURL:    getEnv("LEARNER_PROFILE_URL", "http://localhost:10001"),
		},
		Exam: ExamConfig{
			WarmupQuestions:     getEnvAsInt("EXAM_WARMUP_QUESTIONS", 3),
			RaiseThreshold:      getEnvAsFloat("EXAM_RAISE_THRESHOLD", 0.70),
			DropThreshold:       getEnvAsFloat("EXAM_DROP_THRESHOLD", 0.50),
			TimedLimitMinutes:   getEnvAsInt("EXAM_TIMED_LIMIT_MINUTES", 75),
			WarningSeconds:      getEnvAsInt("EXAM_TIMER_WARNING_SECONDS", 600),
			FinalWarningSeconds: getEnvAsInt("EXAM_TIMER_FINAL_WARNING_SECONDS", 300),
			QuestionType:        getEnv("EXAM_QUESTION_TYPE", "mcq"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("error retrieve int env var %s: %s", key, err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("error retrieve float env var %s: %s", key, err)
			return defaultValue
		}
		return floatVal
	}
	return defaultValue
}
