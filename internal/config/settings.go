package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// Settings holds the runtime configuration of the service.
// Values come from defaults, an optional settings file and COMPASS_* environment variables.
type Settings struct {
	ListenAddr      string        `mapstructure:"listen_addr" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Language        string        `mapstructure:"language" validate:"required"`
	SourceMode      string        `mapstructure:"source_mode" validate:"oneof=api vcard file"`
	SourceURL       string        `mapstructure:"source_url" validate:"required_if=SourceMode api"`
	SourcePath      string        `mapstructure:"source_path" validate:"required_if=SourceMode file,required_without=SourceURL"`
	SourceUser      string        `mapstructure:"source_user"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gt=0"`
	ReminderTrigger string        `mapstructure:"reminder_trigger"`
	WindowDays      int           `mapstructure:"window_days" validate:"min=1"`
	RosterLimit     int           `mapstructure:"roster_limit" validate:"min=1"`
}

// Addr returns the host:port the HTTP server binds to.
func (s Settings) Addr() string {
	return s.ListenAddr + AddrSeparator + strconv.Itoa(s.Port)
}

// Load reads the settings. An empty path skips the settings file.
func Load(path string) (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}

	v := viper.New()
	v.SetDefault(KeyListenAddr, LocalhostBindAddr)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeySourceMode, DefaultSourceMode)
	v.SetDefault(KeySourceURL, "")
	v.SetDefault(KeySourcePath, "")
	v.SetDefault(KeySourceUser, "")
	v.SetDefault(KeyRefreshInterval, DefaultRefreshInterval)
	v.SetDefault(KeyReminderTrigger, DefaultReminderTrigger)
	v.SetDefault(KeyWindowDays, DefaultWindowDays)
	v.SetDefault(KeyRosterLimit, DefaultRosterLimit)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
	}

	// The default path only applies to the JSON export; a vCard source may be URL-only.
	if s.SourceMode == SourceModeFile && s.SourcePath == "" {
		s.SourcePath = DefaultSourcePath
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrSettingsInvalid, err)
	}

	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompConfig,
		LogKeyMode, s.SourceMode,
		LogKeyAddr, s.Addr(),
	)
	return s, nil
}

// loadDotEnv loads .env from the working directory if it exists.
func loadDotEnv() error {
	if _, err := os.Stat(DotEnvFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: %w", ErrDotEnvLoad, err)
	}
	if err := godotenv.Load(DotEnvFile); err != nil {
		return fmt.Errorf("%s: %w", ErrDotEnvLoad, err)
	}
	return nil
}

// SourcePassword returns the record source password for user.
// The OS keyring wins; COMPASS_SOURCE_PASSWORD is the fallback for headless hosts.
func SourcePassword(user string) string {
	if user == "" {
		return os.Getenv(EnvSourcePassword)
	}
	p, err := keyring.Get(KeyringService, user)
	if err == nil {
		return p
	}
	slog.Debug(MsgPassFail,
		LogKeyComponent, CompConfig,
		LogKeyUser, user,
		LogKeyError, err,
	)
	return os.Getenv(EnvSourcePassword)
}

// StorePassword saves the record source password for user in the OS keyring.
func StorePassword(user, password string) error {
	if user == "" {
		return errors.New(ErrUserRequired)
	}
	if err := keyring.Set(KeyringService, user, password); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringStore, err)
	}
	return nil
}
