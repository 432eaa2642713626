package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	limiter := newRateLimiter(2, 50*time.Millisecond)

	require.True(t, limiter.Allow("1.2.3.4"))
	require.True(t, limiter.Allow("1.2.3.4"))
	require.False(t, limiter.Allow("1.2.3.4"))

	// Other clients are counted separately.
	require.True(t, limiter.Allow("5.6.7.8"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, limiter.Allow("1.2.3.4"))
}
