package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("marketplace.resource", "plugins"),
		attribute.String("marketplace.license_key", "abc"),
		attribute.String("http.authorization", "Bearer x"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("marketplace.resource"), attrs[0].Key)
}

func TestSafeErrorTruncates(t *testing.T) {
	assert.Nil(t, SafeError(nil))

	err := SafeError(errors.New(strings.Repeat("x", 1000)))
	require.Error(t, err)
	assert.Len(t, err.Error(), maxErrorLength)
}

func TestSamplingRatioBounds(t *testing.T) {
	assert.Equal(t, 1.0, samplingRatio(0))
	assert.Equal(t, 1.0, samplingRatio(2))
	assert.Equal(t, 0.25, samplingRatio(0.25))
}

func TestDisabledProviderNeverSamples(t *testing.T) {
	provider, err := NewProvider(nil, Config{ServiceName: "marketplace"}, nil)
	require.NoError(t, err)

	_, span := provider.Tracer("test").Start(t.Context(), "op")
	defer span.End()
	assert.False(t, span.SpanContext().IsSampled())
}
