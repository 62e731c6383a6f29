package encoding_test

import (
	"testing"
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationRoundTripsThroughText(t *testing.T) {
	d := encoding.Duration{}
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Get())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	assert.Error(t, d.UnmarshalFlag("soon"))
}

func TestLogLevelFromText(t *testing.T) {
	l := encoding.LogLevel{}
	require.NoError(t, l.UnmarshalFlag("warn"))
	assert.Equal(t, logging.WarnLevel, l.Get())
}

func TestBoolFlag(t *testing.T) {
	var b encoding.Bool
	require.NoError(t, b.UnmarshalFlag("true"))
	assert.True(t, bool(b))
	assert.Error(t, b.UnmarshalFlag("yes"))
}
