package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/crankbench/internal/config"
)

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 0.25, want: "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		s, err := newSampler(tt.rate)
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Description())
	}

	_, err := newSampler(1.01)
	assert.Error(t, err)
}

func TestResolveServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "crankbench", resolveServiceName(config.TracingConfig{}))
	assert.Equal(t, "bench-ci", resolveServiceName(config.TracingConfig{ServiceName: "bench-ci"}))

	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	assert.Equal(t, "from-env", resolveServiceName(config.TracingConfig{}))
	assert.Equal(t, "bench-ci", resolveServiceName(config.TracingConfig{ServiceName: "bench-ci"}))
}

func TestResolveEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	assert.Equal(t, "collector:4317", resolveEndpoint(config.TracingConfig{}))
	assert.Equal(t, "localhost:4318", resolveEndpoint(config.TracingConfig{Endpoint: " localhost:4318 "}))
}
