package notification

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGovernorThrottleExhausted(t *testing.T) {
	var slept time.Duration

	governor := &Governor{sleep: func(d time.Duration) { slept += d }}

	header := http.Header{}
	header.Set(headerRemaining, "0")
	header.Set(headerResetAfter, "1.5")

	governor.Throttle(header)
	require.Equal(t, 1500*time.Millisecond, slept)
}

func TestGovernorThrottleRemaining(t *testing.T) {
	var slept time.Duration

	governor := &Governor{sleep: func(d time.Duration) { slept += d }}

	header := http.Header{}
	header.Set(headerRemaining, "3")
	header.Set(headerResetAfter, "1.5")

	governor.Throttle(header)
	require.Equal(t, time.Duration(0), slept)
}

func TestGovernorThrottleMissingHeaders(t *testing.T) {
	var slept time.Duration

	governor := &Governor{sleep: func(d time.Duration) { slept += d }}

	governor.Throttle(http.Header{})
	governor.Throttle(nil)

	partial := http.Header{}
	partial.Set(headerRemaining, "0")
	governor.Throttle(partial)

	require.Equal(t, time.Duration(0), slept)
}
