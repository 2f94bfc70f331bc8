package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	cases := []struct {
		in   string
		want Signal
	}{
		{"TERM", SIGTERM},
		{"sigterm", SIGTERM},
		{"SIGKILL", SIGKILL},
		{"hup", SIGHUP},
		{"15", SIGTERM},
		{"9", SIGKILL},
		{"31", Signal(31)}, // numeric form accepts any positive signal
	}
	for _, tc := range cases {
		got, err := ParseSignal(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseSignal_Invalid(t *testing.T) {
	for _, in := range []string{"", "BOGUS", "0", "-9"} {
		_, err := ParseSignal(in)
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, ErrUnknownSignal)
	}
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "SIGTERM", SIGTERM.String())
	assert.Equal(t, "SIGXCPU", SIGXCPU.String())
	assert.Equal(t, "SIG(63)", Signal(63).String())
}

func TestSignals_NumericOrderAndNamed(t *testing.T) {
	sigs := Signals()
	require.NotEmpty(t, sigs)
	for i, s := range sigs {
		if i > 0 {
			assert.Greater(t, s, sigs[i-1], "curated signals are in numeric order")
		}
		assert.NotContains(t, s.String(), "(", "curated signals must have names")
	}
}
