package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port string

	StorageBackend string // "memory", "sqlite" o "firestore"
	SQLitePath     string
	GCPProjectID   string

	// Remote answer service
	AnswerModel   string
	UseMockAnswer bool // true = use mock even when a model is configured

	// External classifiers (empty URL = classifier absent, gate fails closed)
	GateClassifierURL   string
	IntentClassifierURL string

	// Gate / orchestration policy
	GateThreshold       float64
	IntentMinConfidence float64
	ContextSummary      bool
	ContextSummaryMsgs  int

	SecretsDir string // key-store location; empty = per-user config dir
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid float in %s=%q, using default %v", key, v, def)
		return def
	}
	return f
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid int in %s=%q, using default %v", key, v, def)
		return def
	}
	return n
}

// Load reads all env vars and builds the config
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PLAYDEX_PORT", "8080"),

		StorageBackend: getEnv("PLAYDEX_STORAGE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("PLAYDEX_SQLITE_PATH", "data/chat.db"),
		GCPProjectID:   getEnv("PLAYDEX_GCP_PROJECT", ""),

		AnswerModel:   getEnv("PLAYDEX_ANSWER_MODEL", "gemini-2.5-flash-lite"),
		UseMockAnswer: getBoolEnv("PLAYDEX_USE_MOCK_ANSWER", false),

		GateClassifierURL:   getEnv("PLAYDEX_GATE_CLASSIFIER_URL", ""),
		IntentClassifierURL: getEnv("PLAYDEX_INTENT_CLASSIFIER_URL", ""),

		GateThreshold:       getFloatEnv("PLAYDEX_GATE_THRESHOLD", 0.70),
		IntentMinConfidence: getFloatEnv("PLAYDEX_INTENT_MIN_CONFIDENCE", 0.55),
		ContextSummary:      getBoolEnv("PLAYDEX_CONTEXT_SUMMARY", true),
		ContextSummaryMsgs:  getIntEnv("PLAYDEX_CONTEXT_SUMMARY_MSGS", 6),

		SecretsDir: getEnv("PLAYDEX_SECRETS_DIR", ""),
	}

	// Minimal validation for the firestore backend
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("PLAYDEX_GCP_PROJECT must be set with the firestore backend")
	}

	return cfg
}
