// Package config owns the daemon's settings: loading them from viper,
// validating them, and normalizing the note path. Components receive a
// Settings value at construction time and never read configuration at
// request time; changes arrive as a whole new Settings applied at once.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/searchtrail/searchtrail/internal/stamp"
	"github.com/searchtrail/searchtrail/internal/vault"
)

// Port bounds. Ports below 1024 need elevated privileges and are never
// what a browser extension should be told to talk to.
const (
	MinPort = 1024
	MaxPort = 65535
)

// NoteExt is appended to the configured note name when absent.
const NoteExt = ".md"

// Settings is the full runtime configuration of the daemon.
type Settings struct {
	VaultDir   string `mapstructure:"vault_dir"`   // notes directory (must exist)
	Note       string `mapstructure:"note"`        // vault-relative note path, ".md" optional
	Port       int    `mapstructure:"port"`        // listening port, MinPort..MaxPort
	Host       string `mapstructure:"host"`        // bind address
	Prepend    bool   `mapstructure:"prepend"`     // new lines before existing content
	TimeFormat string `mapstructure:"time_format"` // moment-style timestamp format
	AccessLog  bool   `mapstructure:"access_log"`  // per-request structured log line
	LogDir     string `mapstructure:"log_dir"`     // rotating process log, empty = stdout only
	LogFormat  string `mapstructure:"log_format"`  // "text" or "json"
}

// SetDefaults registers the default value for every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vault_dir", "")
	v.SetDefault("note", "Search Log")
	v.SetDefault("port", 8090)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("prepend", false)
	v.SetDefault("time_format", stamp.DefaultLayout)
	v.SetDefault("access_log", false)
	v.SetDefault("log_dir", "")
	v.SetDefault("log_format", "text")
}

// FromViper decodes the current state of v into a Settings value.
func FromViper(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode settings: %w", err)
	}
	return s, nil
}

// ListenAddr returns the host:port address the listener binds to.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// NotePath returns the configured note name normalized with NoteExt.
func (s Settings) NotePath() string {
	return NormalizeNote(s.Note)
}

// Validate checks every setting that can be checked without touching the
// vault. Store-dependent checks live in ValidateNotePath.
func (s Settings) Validate() error {
	if err := ValidatePort(s.Port); err != nil {
		return err
	}
	if s.VaultDir == "" {
		return fmt.Errorf("config: vault_dir is not set")
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format %q is not \"text\" or \"json\"", s.LogFormat)
	}
	return nil
}

// NormalizeNote maps a user-supplied note stem to the note path the writer
// commits to, appending NoteExt unless the name already ends with it.
// The extension check is case-insensitive, so "Log.MD" stays as typed.
func NormalizeNote(stem string) string {
	if strings.EqualFold(NoteExt, stemExt(stem)) {
		return stem
	}
	return stem + NoteExt
}

func stemExt(stem string) string {
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		return stem[i:]
	}
	return ""
}

// ValidatePort checks that port is within MinPort..MaxPort inclusive.
func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("config: port %d outside %d-%d", port, MinPort, MaxPort)
	}
	return nil
}

// ParsePort parses a textual port and validates its range.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("config: port %q is not an integer", s)
	}
	if err := ValidatePort(port); err != nil {
		return 0, err
	}
	return port, nil
}

// ValidateNotePath checks a normalized note path against the live store:
// the name must be non-empty, must not end in a path separator, every
// parent segment must exist as a folder, and the target itself must not
// currently be a folder. Run at settings-apply time so a bad path is
// rejected before any write is attempted.
func ValidateNotePath(store vault.Store, name string) error {
	if name == "" || name == NoteExt {
		return fmt.Errorf("config: note name is empty")
	}
	if strings.HasSuffix(name, "/") {
		return fmt.Errorf("config: note %q ends with a path separator", name)
	}
	parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
	for i := 1; i < len(parts); i++ {
		parent := strings.Join(parts[:i], "/")
		switch store.Stat(parent) {
		case vault.Absent:
			return fmt.Errorf("config: note folder %q does not exist", parent)
		case vault.Document:
			return fmt.Errorf("config: note folder %q is a note, not a folder", parent)
		}
	}
	if store.Stat(name) == vault.Folder {
		return fmt.Errorf("config: note %q is a folder", name)
	}
	return nil
}
