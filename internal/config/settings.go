package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// ManualEntry is one birthday listed directly in the configuration file.
type ManualEntry struct {
	Name  string `yaml:"name"`
	Year  int    `yaml:"year"`
	Month int    `yaml:"month"`
	Day   int    `yaml:"day"`
}

// Endpoint holds connection settings shared by the remote sources.
// Password may be left empty in the file; ResolvePasswords then consults
// the environment and the OS keyring.
type Endpoint struct {
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// CalendarSettings configures the iCalendar source. Source is either an
// http(s) URL or a local file path.
type CalendarSettings struct {
	Source   string `yaml:"source"`
	Endpoint `yaml:",inline"`
}

// DirectorySettings configures the CardDAV/vCard source (HTTP only).
type DirectorySettings struct {
	URL      string `yaml:"url"`
	Endpoint `yaml:",inline"`
}

// TextSettings controls the published rollup text. Template supports the
// %n (name) and %a (age) placeholders; rendered entries are joined by
// Separator.
type TextSettings struct {
	Template  string `yaml:"template"`
	Separator string `yaml:"separator"`
}

// Settings is the top-level application configuration.
type Settings struct {
	Birthdays []ManualEntry     `yaml:"birthdays"`
	Calendar  CalendarSettings  `yaml:"calendar"`
	Directory DirectorySettings `yaml:"directory"`
	Text      TextSettings      `yaml:"text"`

	// KeyringServiceName overrides the keyring service used for password
	// lookups. Defaults to KeyringService.
	KeyringServiceName string `yaml:"keyring_service"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Birthdays: []ManualEntry{},
		Text: TextSettings{
			Template:  DefaultTextTemplate,
			Separator: DefaultTextSeparator,
		},
		KeyringServiceName: KeyringService,
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (s *Settings) Normalize() {
	if s.Birthdays == nil {
		s.Birthdays = []ManualEntry{}
	}
	if s.Text.Template == "" {
		s.Text.Template = DefaultTextTemplate
	}
	if s.Text.Separator == "" {
		s.Text.Separator = DefaultTextSeparator
	}
	if s.KeyringServiceName == "" {
		s.KeyringServiceName = KeyringService
	}
}

// Load reads the configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent directory 0700) and returned, so a first run produces an
// editable template instead of an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrConfigPathEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultSettings()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			slog.Info(MsgConfigCreated,
				LogKeyComponent, CompConfig,
				LogKeyFile, path,
			)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to the given path atomically (temp file +
// rename) with owner-only permissions.
func Save(path string, cfg *Settings) error {
	if path == "" {
		return errors.New(ErrConfigPathEmpty)
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".go-birthday-sync-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// ResolvePasswords fills empty source passwords from the environment
// first, then from the OS keyring. Missing secrets are not fatal: a
// source that genuinely needs one will fail its fetch and be skipped.
func (s *Settings) ResolvePasswords() {
	s.Calendar.Password = resolvePassword(
		s.Calendar.Password, EnvCalendarPassword,
		s.KeyringServiceName, s.Calendar.Username,
	)
	s.Directory.Password = resolvePassword(
		s.Directory.Password, EnvDirectoryPassword,
		s.KeyringServiceName, s.Directory.Username,
	)
}

func resolvePassword(current, envKey, service, user string) string {
	if current != "" {
		return current
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if service == "" || user == "" {
		return ""
	}
	secret, err := keyring.Get(service, user)
	if err != nil {
		slog.Debug(MsgKeyringMiss,
			LogKeyComponent, CompConfig,
			LogKeyError, err,
		)
		return ""
	}
	return secret
}
