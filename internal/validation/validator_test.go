package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/validation"
)

type testConfig struct {
	Environment string        `env:"ENV" validate:"required,oneof=development staging production"`
	Patterns    []string      `env:"COFFEE_WATCH" validate:"dive,regexp"`
	Delay       time.Duration `json:"settle_delay" validate:"gt=0"`
	Addr        string        `validate:"omitempty,hostname_port"`
}

func valid() testConfig {
	return testConfig{
		Environment: "development",
		Patterns:    []string{`^src/(.+)$`},
		Delay:       time.Millisecond,
		Addr:        "localhost:35729",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(valid()))

	cfg := valid()
	cfg.Addr = ""
	assert.NoError(t, validation.New().Validate(cfg), "empty address disables live reload")
}

func TestValidator_ValidateErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*testConfig)
		wantField string
		wantMsg   string
	}{
		{
			name:      "unknown environment",
			mutate:    func(c *testConfig) { c.Environment = "test" },
			wantField: "ENV",
			wantMsg:   "must be one of: development staging production",
		},
		{
			name:      "bad pattern",
			mutate:    func(c *testConfig) { c.Patterns = []string{`(`} },
			wantField: "COFFEE_WATCH[0]",
			wantMsg:   "must be a valid regular expression",
		},
		{
			name:      "zero delay uses json name",
			mutate:    func(c *testConfig) { c.Delay = 0 },
			wantField: "settle_delay",
			wantMsg:   "must be greater than 0",
		},
		{
			name:      "address without port",
			mutate:    func(c *testConfig) { c.Addr = "localhost" },
			wantField: "Addr",
			wantMsg:   "must be a host:port address",
		},
	}

	v := validation.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := v.Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}
