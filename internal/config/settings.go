package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ytget/web-grabber/internal/model"
)

// Settings keys
const (
	KeyDownloadDir = "output"
	KeyTimeout     = "timeout"
	KeyChunkSize   = "chunk_size"
	KeyUserAgent   = "user_agent"
	KeyLogFile     = "log_file"
	KeyLogLevel    = "log_level"
	KeyKeepQuery   = "keep_query"
	KeyOpenOnDone  = "open_on_complete"
	KeyExtensions  = "extensions"
)

// Default values
const (
	DefaultDownloadDir = "downloads"
	DefaultTimeout     = 10 * time.Second
	DefaultChunkSize   = 8 * 1024
	DefaultUserAgent   = "Mozilla/5.0 (compatible; webgrab/1.0)"
	DefaultLogFile     = "webgrab.log"
	DefaultLogLevel    = "info"
	DefaultKeepQuery   = false
	DefaultOpenOnDone  = false
)

// Limits
const (
	MinTimeout   = 1 * time.Second
	MaxTimeout   = 10 * time.Minute
	MinChunkSize = 1024
	MaxChunkSize = 4 * 1024 * 1024
)

// Config file lookup
const (
	ConfigName = "webgrab"
	ConfigType = "yaml"
	EnvPrefix  = "WEBGRAB"
)

// Settings manages application configuration
type Settings struct {
	v *viper.Viper
}

// NewSettings creates a settings manager with defaults applied
func NewSettings() *Settings {
	v := viper.New()
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyChunkSize, DefaultChunkSize)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyLogFile, DefaultLogFile)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyKeepQuery, DefaultKeepQuery)
	v.SetDefault(KeyOpenOnDone, DefaultOpenOnDone)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &Settings{v: v}
}

// Load reads configFile, or searches ./webgrab.yaml and
// $HOME/.config/webgrab/webgrab.yaml when configFile is empty. A missing
// config file is not an error unless it was named explicitly.
func (s *Settings) Load(configFile string) error {
	if configFile != "" {
		s.v.SetConfigFile(configFile)
	} else {
		s.v.SetConfigName(ConfigName)
		s.v.SetConfigType(ConfigType)
		s.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			s.v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// BindFlags lets command-line flags override every other source. Flag
// names use dashes where keys use underscores.
func (s *Settings) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{KeyDownloadDir, KeyTimeout, KeyChunkSize, KeyUserAgent, KeyLogFile, KeyLogLevel, KeyKeepQuery, KeyOpenOnDone} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := s.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// ConfigFileUsed returns the path of the loaded config file, if any
func (s *Settings) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}

// GetDownloadDirectory returns the configured download root
func (s *Settings) GetDownloadDirectory() string {
	dir := s.v.GetString(KeyDownloadDir)
	if dir == "" {
		return DefaultDownloadDir
	}
	return dir
}

// SetDownloadDirectory sets the download root
func (s *Settings) SetDownloadDirectory(dir string) {
	s.v.Set(KeyDownloadDir, dir)
}

// GetTimeout returns the per-request timeout
func (s *Settings) GetTimeout() time.Duration {
	return clampDuration(s.v.GetDuration(KeyTimeout), MinTimeout, MaxTimeout, DefaultTimeout)
}

// SetTimeout sets the per-request timeout
func (s *Settings) SetTimeout(timeout time.Duration) {
	s.v.Set(KeyTimeout, clampDuration(timeout, MinTimeout, MaxTimeout, DefaultTimeout))
}

// GetChunkSize returns the download read size in bytes
func (s *Settings) GetChunkSize() int {
	return clampInt(s.v.GetInt(KeyChunkSize), MinChunkSize, MaxChunkSize, DefaultChunkSize)
}

// SetChunkSize sets the download read size in bytes
func (s *Settings) SetChunkSize(size int) {
	s.v.Set(KeyChunkSize, clampInt(size, MinChunkSize, MaxChunkSize, DefaultChunkSize))
}

// GetUserAgent returns the User-Agent header value
func (s *Settings) GetUserAgent() string {
	ua := s.v.GetString(KeyUserAgent)
	if ua == "" {
		return DefaultUserAgent
	}
	return ua
}

// SetUserAgent sets the User-Agent header value
func (s *Settings) SetUserAgent(ua string) {
	if ua == "" {
		ua = DefaultUserAgent
	}
	s.v.Set(KeyUserAgent, ua)
}

// GetLogFile returns the log file path; empty disables file logging
func (s *Settings) GetLogFile() string {
	return s.v.GetString(KeyLogFile)
}

// GetLogLevel returns the configured log level
func (s *Settings) GetLogLevel() string {
	level := s.v.GetString(KeyLogLevel)
	if level == "" {
		return DefaultLogLevel
	}
	return level
}

// GetKeepQuery reports whether extracted links keep their query string
func (s *Settings) GetKeepQuery() bool {
	return s.v.GetBool(KeyKeepQuery)
}

// GetOpenOnComplete reports whether the download root is opened after a batch
func (s *Settings) GetOpenOnComplete() bool {
	return s.v.GetBool(KeyOpenOnDone)
}

// GetExtensionTable returns the extension table from the "extensions" map
// (category name to extension list), or model.DefaultExtensionTable when
// none is configured. Unknown category names land in other; extensions are
// lowercased and given a leading dot.
func (s *Settings) GetExtensionTable() model.ExtensionTable {
	raw := s.v.GetStringMapStringSlice(KeyExtensions)
	if len(raw) == 0 {
		return model.DefaultExtensionTable
	}

	byCategory := make(map[model.Category][]string)
	for name, exts := range raw {
		category := model.ParseCategory(name)
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" || ext == "." {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			byCategory[category] = append(byCategory[category], ext)
		}
	}

	table := make(model.ExtensionTable, 0, len(model.Categories()))
	for _, category := range model.Categories() {
		exts := byCategory[category]
		sort.Strings(exts)
		table = append(table, model.ExtensionEntry{Category: category, Extensions: exts})
	}
	return table
}

func clampDuration(d, min, max, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

func clampInt(n, min, max, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
