package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}

	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
}

func TestConfigExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{ServiceName: "ark-resolver-test", ServiceVersion: "1.2.3"}

	assert.Equal(t, "ark-resolver-test", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
}

func TestMetricsEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{name: "nil config", cfg: nil, want: false},
		{name: "globally disabled", cfg: &Config{Enabled: false, Metrics: &MetricsConfig{Enabled: true}}, want: false},
		{name: "metrics section missing", cfg: &Config{Enabled: true}, want: false},
		{name: "metrics disabled", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: false}}, want: false},
		{name: "fully enabled", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.cfg.MetricsEnabled())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "disabled", cfg: &Config{Enabled: false}},
		{name: "enabled with metrics", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.NoError(t, tt.cfg.Validate())
		})
	}
}
