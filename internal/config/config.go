package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"driving-exam-service/internal/domain"
)

const (
	BankSourceSample   = "sample"
	BankSourceFile     = "file"
	BankSourcePostgres = "postgres"

	HistoryBackendMemory = "memory"
	HistoryBackendRedis  = "redis"
	HistoryBackendSQLite = "sqlite"
)

type Config struct {
	Exam     ExamSection     `yaml:"exam"`
	Server   ServerSection   `yaml:"server"`
	Log      LogSection      `yaml:"log"`
	Redis    RedisSection    `yaml:"redis"`
	Postgres PostgresSection `yaml:"postgres"`
	SQLite   SQLiteSection   `yaml:"sqlite"`
	Bank     BankSection     `yaml:"bank"`
	History  HistorySection  `yaml:"history"`
}

type ExamSection struct {
	TotalQuestions      int `yaml:"total_questions" validate:"gte=1"`
	QuestionsPerSession int `yaml:"questions_per_session" validate:"gte=1,ltefield=TotalQuestions"`
	DurationSeconds     int `yaml:"duration_seconds" validate:"gte=1"`
	PassingThreshold    int `yaml:"passing_threshold" validate:"gte=0,lte=100"`
}

type ServerSection struct {
	Port string `yaml:"port" validate:"omitempty,numeric"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogSection struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" validate:"omitempty,oneof=json pretty"`
}

type RedisSection struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	TTL      string `yaml:"ttl"`
}

type PostgresSection struct {
	URL string `yaml:"url"`
}

type SQLiteSection struct {
	Path string `yaml:"path"`
}

type BankSection struct {
	Source string `yaml:"source" validate:"oneof=sample file postgres"`
	File   string `yaml:"file"`
	TTL    string `yaml:"ttl"`
}

type HistorySection struct {
	Backend string `yaml:"backend" validate:"oneof=memory redis sqlite"`
	Limit   int    `yaml:"limit" validate:"gte=0"`
}

// Default returns a config that runs fully in memory with the sample bank.
func Default() Config {
	exam := domain.DefaultExamConfig()
	return Config{
		Exam: ExamSection{
			TotalQuestions:      exam.TotalQuestions,
			QuestionsPerSession: exam.QuestionsPerSession,
			DurationSeconds:     exam.DurationSeconds,
			PassingThreshold:    exam.PassingThreshold,
		},
		Server:  ServerSection{Port: "8080"},
		Log:     LogSection{Level: "info", Format: "json"},
		Redis:   RedisSection{TTL: "10m"},
		SQLite:  SQLiteSection{Path: "exam.db"},
		Bank:    BankSection{Source: BankSourceSample, TTL: "10m"},
		History: HistorySection{Backend: HistoryBackendMemory, Limit: 50},
	}
}

// Load reads an optional .env, the YAML file at path on top of the
// defaults, then environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"REDIS_ADDR":      &c.Redis.Addr,
		"DATABASE_URL":    &c.Postgres.URL,
		"SQLITE_PATH":     &c.SQLite.Path,
		"BANK_SOURCE":     &c.Bank.Source,
		"BANK_FILE":       &c.Bank.File,
		"HISTORY_BACKEND": &c.History.Backend,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
}

var validate = validator.New()

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			result = multierror.Append(result, fmt.Errorf("%s: failed %q rule (value %v)",
				strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value()))
		}
	}

	if c.Bank.Source == BankSourceFile && c.Bank.File == "" {
		result = multierror.Append(result, errors.New("bank.file is required when bank.source is file"))
	}
	if c.Bank.Source == BankSourcePostgres && c.Postgres.URL == "" {
		result = multierror.Append(result, errors.New("postgres.url is required when bank.source is postgres"))
	}
	if c.History.Backend == HistoryBackendRedis && c.Redis.Addr == "" {
		result = multierror.Append(result, errors.New("redis.addr is required when history.backend is redis"))
	}
	if c.History.Backend == HistoryBackendSQLite && c.SQLite.Path == "" {
		result = multierror.Append(result, errors.New("sqlite.path is required when history.backend is sqlite"))
	}

	return result.ErrorOrNil()
}

// ExamConfig maps the exam section onto the engine parameters.
func (c Config) ExamConfig() domain.ExamConfig {
	return domain.ExamConfig{
		TotalQuestions:      c.Exam.TotalQuestions,
		QuestionsPerSession: c.Exam.QuestionsPerSession,
		DurationSeconds:     c.Exam.DurationSeconds,
		PassingThreshold:    c.Exam.PassingThreshold,
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
