package clockx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/stretchr/testify/require"
)

func TestSystemIsUTC(t *testing.T) {
	now := clockx.System{}.Now()
	require.Equal(t, time.UTC, now.Location())
	require.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFakeAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := clockx.NewFake(start)
	require.Equal(t, start, c.Now())

	c.Advance(90 * time.Second)
	require.Equal(t, start.Add(90*time.Second), c.Now())

	later := start.Add(time.Hour)
	c.Set(later)
	require.Equal(t, later, c.Now())
}
