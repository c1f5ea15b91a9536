package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
)

// noEnvFile points LoadConfig at a file that does not exist.
func noEnvFile(t *testing.T) string {
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Watcher:  WatcherConfig{Root: ".", SettleDelay: 100 * time.Millisecond},
		Compiler: CompilerConfig{Command: "coffee"},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.False(t, cfg.App.Once)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ".", cfg.Watcher.Root)
	assert.Equal(t, 100*time.Millisecond, cfg.Watcher.SettleDelay)
	assert.True(t, cfg.Watcher.IgnoreHidden)
	assert.Equal(t, "coffee", cfg.Compiler.Command)
	assert.False(t, cfg.LiveReload.Enabled())

	// Guard overrides stay unset so the merge applies its own defaults.
	assert.Nil(t, cfg.Guard.Input)
	assert.Nil(t, cfg.Guard.Output)
	assert.Nil(t, cfg.Guard.Bare)
	assert.Nil(t, cfg.Guard.AllOnStart)
	assert.Empty(t, cfg.Guard.Patterns)
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := LoadConfig([]string{
		noEnvFile(t),
		"-input", "app/coffeescripts",
		"-output", "public/javascripts",
		"-watch", `^lib/(.+)$, ^spec/(.+)$`,
		"-bare",
		"-shallow=false",
		"-settle-delay", "250ms",
		"-coffee", "npx coffee",
		"-livereload-addr", ":35729",
		"-log-level", "DEBUG",
	})
	require.NoError(t, err)

	require.NotNil(t, cfg.Guard.Input)
	assert.Equal(t, "app/coffeescripts", *cfg.Guard.Input)
	require.NotNil(t, cfg.Guard.Output)
	assert.Equal(t, "public/javascripts", *cfg.Guard.Output)
	assert.Equal(t, []string{`^lib/(.+)$`, `^spec/(.+)$`}, cfg.Guard.Patterns)
	assert.Equal(t, domain.Bool(true), cfg.Guard.Bare)
	assert.Equal(t, domain.Bool(false), cfg.Guard.Shallow)
	assert.Nil(t, cfg.Guard.Noop)
	assert.Equal(t, 250*time.Millisecond, cfg.Watcher.SettleDelay)
	assert.Equal(t, "npx coffee", cfg.Compiler.Command)
	assert.True(t, cfg.LiveReload.Enabled())
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_EnvAndPrecedence(t *testing.T) {
	t.Setenv("COFFEE_OUTPUT", "from-env")
	t.Setenv("COFFEE_NOOP", "yes")
	t.Setenv("COFFEE_HIDE_SUCCESS", "0")
	t.Setenv("WATCH_ROOT", "src")

	cfg, err := LoadConfig([]string{noEnvFile(t), "-root", "lib"})
	require.NoError(t, err)

	assert.Equal(t, "from-env", *cfg.Guard.Output)
	assert.Equal(t, domain.Bool(true), cfg.Guard.Noop)
	assert.Equal(t, domain.Bool(false), cfg.Guard.HideSuccess)
	assert.Equal(t, "lib", cfg.Watcher.Root, "flag wins over env")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COFFEE_COMMAND=\"node_modules/.bin/coffee\"\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COFFEE_COMMAND") }) //nolint:errcheck // Test cleanup

	cfg, err := LoadConfig([]string{"-env-file", envFile})
	require.NoError(t, err)
	assert.Equal(t, "node_modules/.bin/coffee", cfg.Compiler.Command)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad environment", []string{"-env", "test"}},
		{"bad log level", []string{"-log-level", "verbose"}},
		{"bad pattern", []string{"-watch", "("}},
		{"bad settle delay", []string{"-settle-delay", "soon"}},
		{"zero settle delay", []string{"-settle-delay", "0s"}},
		{"bad livereload addr", []string{"-livereload-addr", "localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(append([]string{noEnvFile(t)}, tt.args...))
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{noEnvFile(t), "-nope"})
	assert.Error(t, err)
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGuardConfig_Overrides(t *testing.T) {
	gc := GuardConfig{
		Input:    domain.String("src"),
		Bare:     domain.Bool(true),
		Patterns: []string{`^lib/(.+)$`},
	}

	overrides, err := gc.Overrides()
	require.NoError(t, err)

	opts, watchers := domain.Merge(overrides)
	assert.Equal(t, "src", opts.Output)
	assert.True(t, opts.Bare)
	require.Len(t, watchers, 2)
	assert.Equal(t, `^lib/(.+)$`, watchers[0].String(), "explicit watchers come first")
}

func TestGuardConfig_OverridesInvalidPattern(t *testing.T) {
	_, err := GuardConfig{Patterns: []string{"["}}.Overrides()
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default"))
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TEST_UNSET_KEY", "default"))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# comment
TEST_KEY1=value1
export TEST_KEY2="quoted value"

TEST_KEY3='single'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	t.Cleanup(func() {
		for _, k := range []string{"TEST_KEY1", "TEST_KEY2", "TEST_KEY3"} {
			os.Unsetenv(k) //nolint:errcheck // Test cleanup
		}
	})

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "value1", os.Getenv("TEST_KEY1"))
	assert.Equal(t, "quoted value", os.Getenv("TEST_KEY2"))
	assert.Equal(t, "single", os.Getenv("TEST_KEY3"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NOT_A_PAIR\n"), 0o644))

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "line 1")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_VAR=new-value\n"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
