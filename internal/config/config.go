// Package config loads process configuration from command-line flags,
// environment variables and a .env file.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Guard      GuardConfig
	Watcher    WatcherConfig
	Compiler   CompilerConfig
	LiveReload LiveReloadConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" validate:"required,oneof=development staging production"`
	// Once compiles every watched file and exits instead of watching.
	Once bool `env:"COFFEE_ONCE"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
}

// GuardConfig holds the user overrides for the guard. Nil fields were not
// set anywhere and take their defaults during the merge.
type GuardConfig struct {
	Input       *string
	Output      *string
	Bare        *bool
	Shallow     *bool
	HideSuccess *bool
	Noop        *bool
	AllOnStart  *bool
	SourceMap   *bool
	// Patterns are explicit watch expressions in declaration order.
	Patterns []string `env:"COFFEE_WATCH" validate:"dive,regexp"`
}

// WatcherConfig holds file watching configuration.
type WatcherConfig struct {
	Root         string        `env:"WATCH_ROOT" validate:"required"`
	SettleDelay  time.Duration `env:"WATCH_SETTLE_DELAY" validate:"gt=0"`
	IgnoreHidden bool          `env:"WATCH_IGNORE_HIDDEN"`
}

// CompilerConfig holds compiler configuration.
type CompilerConfig struct {
	// Command is split into words like a shell would, e.g. "npx coffee".
	Command string `env:"COFFEE_COMMAND" validate:"required"`
}

// LiveReloadConfig holds live reload configuration.
type LiveReloadConfig struct {
	// Addr is the listen address; empty disables live reload.
	Addr string `env:"LIVERELOAD_ADDR" validate:"omitempty,hostname_port"`
}

// Enabled reports whether the live reload server should run.
func (c LiveReloadConfig) Enabled() bool {
	return c.Addr != ""
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("coffeeguard", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	once := &optionalBool{}
	fs.Var(once, "once", "Compile every watched file and exit")

	input := fs.String("input", "", "Directory holding CoffeeScript sources; also the default output")
	output := fs.String("output", "", "Directory compiled JavaScript is written to")
	watch := fs.String("watch", "", "Comma-separated watch patterns (regular expressions)")
	bare := &optionalBool{}
	fs.Var(bare, "bare", "Compile without the top-level function wrapper")
	shallow := &optionalBool{}
	fs.Var(shallow, "shallow", "Do not mirror source sub-directories in the output")
	hideSuccess := &optionalBool{}
	fs.Var(hideSuccess, "hide-success", "Do not log successful compiles")
	noop := &optionalBool{}
	fs.Var(noop, "noop", "Resolve paths but never run the compiler")
	allOnStart := &optionalBool{}
	fs.Var(allOnStart, "all-on-start", "Compile every watched file at startup")
	sourceMap := &optionalBool{}
	fs.Var(sourceMap, "source-map", "Embed source maps in compiled files")

	root := fs.String("root", "", "Directory tree to watch (default: .)")
	settleDelay := fs.String("settle-delay", "", "Quiet period before a change is delivered (default: 100ms)")
	ignoreHidden := &optionalBool{}
	fs.Var(ignoreHidden, "ignore-hidden", "Ignore hidden files and directories (default: true)")

	command := fs.String("coffee", "", "Compiler command (default: coffee)")
	liveReloadAddr := fs.String("livereload-addr", "", "Live reload listen address, e.g. :35729 (default: disabled)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Once:        getBoolConfigValue(once, "COFFEE_ONCE", false),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
		Guard: GuardConfig{
			Input:       getOptionalString(*input, "COFFEE_INPUT"),
			Output:      getOptionalString(*output, "COFFEE_OUTPUT"),
			Bare:        getOptionalBool(bare, "COFFEE_BARE"),
			Shallow:     getOptionalBool(shallow, "COFFEE_SHALLOW"),
			HideSuccess: getOptionalBool(hideSuccess, "COFFEE_HIDE_SUCCESS"),
			Noop:        getOptionalBool(noop, "COFFEE_NOOP"),
			AllOnStart:  getOptionalBool(allOnStart, "COFFEE_ALL_ON_START"),
			SourceMap:   getOptionalBool(sourceMap, "COFFEE_SOURCE_MAP"),
			Patterns:    splitList(getConfigValue(*watch, "COFFEE_WATCH", "")),
		},
		Watcher: WatcherConfig{
			Root:         getConfigValue(*root, "WATCH_ROOT", "."),
			IgnoreHidden: getBoolConfigValue(ignoreHidden, "WATCH_IGNORE_HIDDEN", true),
		},
		Compiler: CompilerConfig{
			Command: getConfigValue(*command, "COFFEE_COMMAND", "coffee"),
		},
		LiveReload: LiveReloadConfig{
			Addr: getConfigValue(*liveReloadAddr, "LIVERELOAD_ADDR", ""),
		},
	}

	settleStr := getConfigValue(*settleDelay, "WATCH_SETTLE_DELAY", "100ms")
	settle, err := time.ParseDuration(settleStr)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeValidation, "invalid settle delay %q", settleStr)
	}
	cfg.Watcher.SettleDelay = settle

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	return validation.New().Validate(c)
}

// Overrides converts the guard section into domain overrides, compiling the
// watch patterns in order.
func (c GuardConfig) Overrides() (domain.Overrides, error) {
	watchers := make([]domain.Watcher, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		w, err := domain.NewWatcher(p)
		if err != nil {
			return domain.Overrides{}, domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid watch pattern")
		}
		watchers = append(watchers, w)
	}

	return domain.Overrides{
		Input:       c.Input,
		Output:      c.Output,
		Bare:        c.Bare,
		Shallow:     c.Shallow,
		HideSuccess: c.HideSuccess,
		Noop:        c.Noop,
		AllOnStart:  c.AllOnStart,
		SourceMap:   c.SourceMap,
		Watchers:    watchers,
	}, nil
}

// optionalBool is a boolean flag that remembers whether it was set.
type optionalBool struct {
	set   bool
	value bool
}

func (b *optionalBool) String() string {
	if b == nil || !b.set {
		return ""
	}
	return strconv.FormatBool(b.value)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.set = true
	b.value = v
	return nil
}

// IsBoolFlag lets "-bare" stand for "-bare=true".
func (b *optionalBool) IsBoolFlag() bool { return true }

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getOptionalString returns nil when neither the flag nor the env var is set.
func getOptionalString(flagValue, envKey string) *string {
	if v := getConfigValue(flagValue, envKey, ""); v != "" {
		return &v
	}
	return nil
}

// getOptionalBool returns nil when neither the flag nor the env var is set.
// Env values accept "true", "1", "yes" (case-insensitive) as true.
func getOptionalBool(flagValue *optionalBool, envKey string) *bool {
	if flagValue.set {
		v := flagValue.value
		return &v
	}
	envValue := os.Getenv(envKey)
	if envValue == "" {
		return nil
	}
	envValue = strings.ToLower(envValue)
	v := envValue == "true" || envValue == "1" || envValue == "yes"
	return &v
}

// getBoolConfigValue returns a bool from flag, env var, or default.
func getBoolConfigValue(flagValue *optionalBool, envKey string, defaultValue bool) bool {
	if v := getOptionalBool(flagValue, envKey); v != nil {
		return *v
	}
	return defaultValue
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: [export ]KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
