package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var (
	geminiOnce   sync.Once
	geminiConfig *GeminiConfig
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func GetGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}

		geminiConfig = &GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   os.Getenv("GEMINI_MODEL"),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
		}
	})
	return geminiConfig
}
