package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkoval/deckwise/pkg/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Study    StudyConfig    `json:"study"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

type TelegramConfig struct {
	Token string `json:"token"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

// StudyConfig tunes queue sizing and the REVIEW/MASTERED boundary. The
// mastered cut is deliberately configurable rather than a fixed constant.
type StudyConfig struct {
	QueueLimit              int `json:"queue_limit"`
	NewCardsLimit           int `json:"new_cards_limit"`
	ReviewMinReps           int `json:"review_min_reps"`
	MasteredMinReps         int `json:"mastered_min_reps"`
	MasteredMinIntervalDays int `json:"mastered_min_interval_days"`
}

const (
	DefaultQueueLimit    = 20
	DefaultNewCardsLimit = 5
)

var AppConfig Config

func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyStudyDefaults(&AppConfig.Study)
	if err := validateStudy(AppConfig.Study); err != nil {
		logger.Error("invalid study config", "error", err)
		return err
	}
	return nil
}

func applyStudyDefaults(study *StudyConfig) {
	if study.QueueLimit <= 0 {
		study.QueueLimit = DefaultQueueLimit
	}
	if study.NewCardsLimit <= 0 {
		study.NewCardsLimit = DefaultNewCardsLimit
	}
	if study.ReviewMinReps <= 0 {
		study.ReviewMinReps = 3
	}
	if study.MasteredMinReps <= 0 {
		study.MasteredMinReps = 5
	}
	if study.MasteredMinIntervalDays <= 0 {
		study.MasteredMinIntervalDays = 30
	}
}

func validateStudy(study StudyConfig) error {
	if study.MasteredMinReps < study.ReviewMinReps {
		return fmt.Errorf("mastered_min_reps %d must not be below review_min_reps %d",
			study.MasteredMinReps, study.ReviewMinReps)
	}
	return nil
}
