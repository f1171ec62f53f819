// Package config provides configuration types and defaults for quill.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/quill/internal/log"
)

// Config holds all configuration options for quill.
type Config struct {
	// TabStop is the number of columns between tab stops. Must be positive:
	// tab expansion divides by it.
	TabStop int `mapstructure:"tab_stop"`

	// QuitTimes is how many times ctrl-Q must be pressed to discard unsaved
	// changes. Must be positive.
	QuitTimes int `mapstructure:"quit_times"`

	// MessageDuration is how long status messages stay visible, in seconds.
	MessageDuration float64 `mapstructure:"message_duration"`

	// ShowLineNumbers toggles the line number gutter.
	ShowLineNumbers bool `mapstructure:"show_line_numbers"`

	// LogFile enables debug logging to the given path. Empty disables
	// logging entirely; the editor owns the terminal, so there is no
	// sensible default destination.
	LogFile string `mapstructure:"log_file"`

	// LogLevel is the minimum level written to the log file.
	// Valid values: "debug", "info", "warn", "error"
	LogLevel string `mapstructure:"log_level"`

	// SyntaxDirs lists extra syntax.d directories searched before the
	// builtin definitions. Empty uses the standard locations.
	SyntaxDirs []string `mapstructure:"syntax_dirs"`
}

// MessageTimeout returns MessageDuration as a time.Duration.
func (c Config) MessageTimeout() time.Duration {
	return time.Duration(c.MessageDuration * float64(time.Second))
}

// EffectiveSyntaxDirs returns the configured syntax directories, or the
// standard locations when none are configured.
func (c Config) EffectiveSyntaxDirs() []string {
	if len(c.SyntaxDirs) > 0 {
		return c.SyntaxDirs
	}
	return DefaultSyntaxDirs()
}

// DefaultSyntaxDirs returns the standard syntax.d locations: the user config
// directory first, then the system-wide one, so user files shadow system
// files the same way they shadow builtins.
func DefaultSyntaxDirs() []string {
	var dirs []string
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, "quill", "syntax.d"))
	}
	return append(dirs, "/etc/quill/syntax.d")
}

// DefaultConfigPath returns the standard config file location, or an empty
// string when the user config directory cannot be determined.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "quill", "config.yaml")
}

// Validate checks the configuration for values that would break the editor.
// Zero values that merely disable a feature are fine; values the render
// math divides by are not.
func (c Config) Validate() error {
	if c.TabStop <= 0 {
		return fmt.Errorf("tab_stop must be a positive integer, got %d", c.TabStop)
	}
	if c.QuitTimes <= 0 {
		return fmt.Errorf("quit_times must be a positive integer, got %d", c.QuitTimes)
	}
	if c.MessageDuration < 0 {
		return fmt.Errorf("message_duration must not be negative, got %v", c.MessageDuration)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.LogLevel)
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		TabStop:         4,
		QuitTimes:       2,
		MessageDuration: 3,
		ShowLineNumbers: true,
		LogLevel:        "info",
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Quill Configuration

# Number of columns between tab stops
tab_stop: 4

# How many times ctrl-Q must be pressed to quit with unsaved changes
quit_times: 2

# How long status messages stay visible, in seconds
message_duration: 3

# Show the line number gutter
show_line_numbers: true

# Debug logging. Disabled unless a file path is set; the editor owns the
# terminal, so logs never go to stdout.
# log_file: /tmp/quill.log
# log_level: info   # debug, info, warn, or error

# Extra syntax.d directories, searched in order before the builtin
# definitions. Defaults to the user and system config locations:
# syntax_dirs:
#   - ~/.config/quill/syntax.d
#   - /etc/quill/syntax.d
#
# A definition file is a YAML descriptor:
#   name: Go
#   extensions: [go]
#   numbers: true
#   line_comments: ["//"]
#   block_comment: { start: "/*", end: "*/" }
#   block_string: "` + "`" + `"
#   quotes: "\"'"
#   keywords1: [func, return]
#   keywords2: [int, string]
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
