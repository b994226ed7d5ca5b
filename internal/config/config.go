package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"mcs-forecast/internal/jira"
	"mcs-forecast/internal/simulation"
	"mcs-forecast/internal/stats"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	SampleCount         int
	LookbackWeeks       int
	WeekCap             int
	Workers             int
	BatchSize           int
	EnableMermaidCharts bool
	StoryPointsField    string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment only. exeDir is the
// fallback DATA_PATH; "" means the working directory.
func FromEnv(exeDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		StoryPointsField:    getEnv("JIRA_STORY_POINTS_FIELD", jira.DefaultStoryPointsField),
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"MCS_SAMPLE_COUNT", simulation.DefaultSampleCount, &cfg.SampleCount},
		{"MCS_LOOKBACK_WEEKS", stats.DefaultLookbackWeeks, &cfg.LookbackWeeks},
		{"MCS_WEEK_CAP", simulation.DefaultWeekCap, &cfg.WeekCap},
		{"MCS_WORKERS", runtime.NumCPU(), &cfg.Workers},
		{"MCS_BATCH_SIZE", simulation.DefaultBatchSize, &cfg.BatchSize},
	}
	for _, v := range ints {
		n, err := getEnvPositiveInt(v.key, v.fallback)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}
	if cfg.SampleCount > simulation.MaxSampleCount {
		return nil, fmt.Errorf("MCS_SAMPLE_COUNT must not exceed %d, got %d", simulation.MaxSampleCount, cfg.SampleCount)
	}
	if cfg.WeekCap > simulation.MaxWeekCap {
		return nil, fmt.Errorf("MCS_WEEK_CAP must not exceed %d, got %d", simulation.MaxWeekCap, cfg.WeekCap)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvPositiveInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}
