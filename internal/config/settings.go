package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/spf13/viper"
)

// Model artifact backends.
const (
	StoreSQLite = "sqlite"
	StoreDir    = "dir"
)

// Default values.
const (
	DefaultDatabasePath  = "~/.local/share/spice/spice.db"
	DefaultModelsDir     = "~/.local/share/spice/models"
	DefaultUserID        = "default"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultContamination = 0.1
	DefaultMonthsAhead   = 1
)

// Settings is the resolved application configuration.
type Settings struct {
	DatabasePath  string
	ModelsStore   string
	ModelsDir     string
	UserID        string
	LogLevel      string
	LogFormat     string
	Contamination float64
	MonthsAhead   int
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("models.store", StoreSQLite)
	v.SetDefault("models.dir", DefaultModelsDir)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("anomaly.contamination", DefaultContamination)
	v.SetDefault("forecast.months_ahead", DefaultMonthsAhead)
}

// Load resolves settings from v. It follows this precedence:
// 1. Viper configuration (flags, SPICE_ env vars, config file)
// 2. Direct environment variables ($USER for user.id)
// 3. Default values
func Load(v *viper.Viper) (Settings, error) {
	SetDefaults(v)

	s := Settings{
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		ModelsStore:   strings.ToLower(strings.TrimSpace(v.GetString("models.store"))),
		ModelsDir:     ExpandPath(v.GetString("models.dir")),
		UserID:        strings.TrimSpace(v.GetString("user.id")),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
		Contamination: v.GetFloat64("anomaly.contamination"),
		MonthsAhead:   v.GetInt("forecast.months_ahead"),
	}

	if s.UserID == "" {
		s.UserID = os.Getenv("USER")
	}
	if s.UserID == "" {
		s.UserID = DefaultUserID
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that every setting is usable.
func (s Settings) Validate() error {
	if s.DatabasePath == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	switch s.ModelsStore {
	case StoreSQLite:
	case StoreDir:
		if s.ModelsDir == "" {
			return fmt.Errorf("%w: models.dir is required when models.store is %q", common.ErrInvalidConfig, StoreDir)
		}
	default:
		return fmt.Errorf("%w: models.store must be %q or %q, got %q",
			common.ErrInvalidConfig, StoreSQLite, StoreDir, s.ModelsStore)
	}
	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch s.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, s.LogFormat)
	}
	if s.Contamination <= 0 || s.Contamination > 0.5 {
		return fmt.Errorf("%w: anomaly.contamination must be in (0, 0.5], got %v", common.ErrInvalidConfig, s.Contamination)
	}
	if s.MonthsAhead < 1 {
		return fmt.Errorf("%w: forecast.months_ahead must be at least 1, got %d", common.ErrInvalidConfig, s.MonthsAhead)
	}
	return nil
}
