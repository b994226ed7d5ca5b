package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/joho/godotenv"

	"mcs-forecast/internal/jira"
)

var configKeys = []string{
	"DATA_PATH", "LOGS_FOLDER", "MCS_SAMPLE_COUNT", "MCS_LOOKBACK_WEEKS", "MCS_WEEK_CAP",
	"MCS_WORKERS", "MCS_BATCH_SIZE", "ENABLE_MERMAID_CHARTS", "JIRA_STORY_POINTS_FIELD",
}

// clearEnv blanks every key so the developer's environment cannot leak into a test.
func clearEnv(t *testing.T) {
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv("/opt/mcs")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataPath != "/opt/mcs" || cfg.LogDir != filepath.Join("/opt/mcs", "logs") {
		t.Errorf("paths = %q %q", cfg.DataPath, cfg.LogDir)
	}
	if cfg.SampleCount != 10000 || cfg.LookbackWeeks != 12 || cfg.WeekCap != 104 || cfg.BatchSize != 1000 {
		t.Errorf("numeric defaults = %+v", cfg)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU", cfg.Workers)
	}
	if cfg.EnableMermaidCharts || cfg.StoryPointsField != jira.DefaultStoryPointsField {
		t.Errorf("unexpected flags: %+v", cfg)
	}

	cfg, err = FromEnv("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataPath != "." {
		t.Errorf("DataPath without executable dir = %q, want .", cfg.DataPath)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PATH", "/data")
	t.Setenv("LOGS_FOLDER", "/var/log/mcs")
	t.Setenv("MCS_SAMPLE_COUNT", "2500")
	t.Setenv("MCS_LOOKBACK_WEEKS", "26")
	t.Setenv("MCS_WEEK_CAP", "52")
	t.Setenv("MCS_WORKERS", "3")
	t.Setenv("MCS_BATCH_SIZE", "250")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("JIRA_STORY_POINTS_FIELD", "customfield_10028")

	cfg, err := FromEnv("/ignored")
	if err != nil {
		t.Fatal(err)
	}
	want := AppConfig{
		DataPath: "/data", LogDir: "/var/log/mcs",
		SampleCount: 2500, LookbackWeeks: 26, WeekCap: 52, Workers: 3, BatchSize: 250,
		EnableMermaidCharts: true, StoryPointsField: "customfield_10028",
	}
	if *cfg != want {
		t.Errorf("FromEnv() = %+v, want %+v", *cfg, want)
	}
}

func TestFromEnv_RejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"MCS_SAMPLE_COUNT", "lots"},
		{"MCS_SAMPLE_COUNT", "-1"},
		{"MCS_SAMPLE_COUNT", "200001"},
		{"MCS_LOOKBACK_WEEKS", "0"},
		{"MCS_WEEK_CAP", "1.5"},
		{"MCS_WEEK_CAP", "521"},
		{"MCS_WORKERS", "many"},
		{"MCS_BATCH_SIZE", "-10"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv("")
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("err = %v, want an error naming %s", err, tt.key)
			}
		})
	}
}

func TestGodotenvQuoting(t *testing.T) {
	content := `JIRA_STORY_POINTS_FIELD='customfield_"10016"'`
	tmpfile, err := os.CreateTemp("", ".env.test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(tmpfile.Name())
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `customfield_"10016"`
	if env["JIRA_STORY_POINTS_FIELD"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["JIRA_STORY_POINTS_FIELD"])
	}
}
