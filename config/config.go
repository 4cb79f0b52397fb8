package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Interests InterestsConfig `yaml:"interests"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Feeds     []FeedSource    `yaml:"feeds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

// PipelineConfig holds the daily curation parameters.
type PipelineConfig struct {
	// RelevanceThreshold is the minimum score an article needs to make
	// the newsletter.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`

	// MaxArticlesPerNewsletter caps one newsletter date. Re-runs within
	// the same date only fill remaining slots.
	MaxArticlesPerNewsletter int `yaml:"max_articles_per_newsletter"`

	// ScoringBatchSize is how many articles go into one scoring prompt.
	ScoringBatchSize int `yaml:"scoring_batch_size"`
}

// InterestsConfig tunes the interest-weight engine.
type InterestsConfig struct {
	DecayFactor         float64 `yaml:"decay_factor"`
	DecayIntervalDays   int     `yaml:"decay_interval_days"`
	LikeWeightIncrement float64 `yaml:"like_weight_increment"`
}

type ScheduleConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DailyPipelineHour  int    `yaml:"daily_pipeline_hour"`
	DailyPipelineMin   int    `yaml:"daily_pipeline_minute"`
	RewindDayOfWeek    string `yaml:"rewind_day_of_week"`
	RewindHour         int    `yaml:"rewind_hour"`
	RewindMinute       int    `yaml:"rewind_minute"`
}

// FeedSource is a single RSS feed configuration item, used to seed the
// feeds collection on startup.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}
	applyDefaults(&c)
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// SetConfig overrides the loaded configuration. Intended for tests.
func SetConfig(c AppConfig) {
	applyDefaults(&c)
	config = &c
}

func applyDefaults(c *AppConfig) {
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Pipeline.RelevanceThreshold == 0 {
		c.Pipeline.RelevanceThreshold = 0.3
	}
	if c.Pipeline.MaxArticlesPerNewsletter == 0 {
		c.Pipeline.MaxArticlesPerNewsletter = 20
	}
	if c.Pipeline.ScoringBatchSize == 0 {
		c.Pipeline.ScoringBatchSize = 10
	}
	if c.Interests.DecayFactor == 0 {
		c.Interests.DecayFactor = 0.9
	}
	if c.Interests.DecayIntervalDays == 0 {
		c.Interests.DecayIntervalDays = 7
	}
	if c.Interests.LikeWeightIncrement == 0 {
		c.Interests.LikeWeightIncrement = 1.0
	}
	if c.Schedule.DailyPipelineHour == 0 && c.Schedule.DailyPipelineMin == 0 {
		c.Schedule.DailyPipelineHour = 6
	}
	if c.Schedule.RewindDayOfWeek == "" {
		c.Schedule.RewindDayOfWeek = "sun"
	}
	if c.Schedule.RewindHour == 0 && c.Schedule.RewindMinute == 0 {
		c.Schedule.RewindHour = 23
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
