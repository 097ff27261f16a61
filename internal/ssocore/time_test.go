package ssocore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant(t *testing.T) {
	got, err := parseInstant("2026-08-06T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC), got)

	got, err = parseInstant("2026-08-06T12:00:00.123Z")
	require.NoError(t, err)
	assert.Equal(t, 123000000, got.Nanosecond())

	_, err = parseInstant("yesterday at noon")
	assert.Error(t, err)
}

func TestIsWithin(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		instant time.Time
		maxAge  int
		want    bool
	}{
		{"inside window", now.Add(-100 * time.Second), 300, true},
		{"exactly at the edge", now.Add(-300 * time.Second), 300, true},
		{"past the edge", now.Add(-301 * time.Second), 300, false},
		{"future inside window", now.Add(100 * time.Second), 300, true},
		{"future past the edge", now.Add(301 * time.Second), 300, false},
		{"zero disables the window", now.Add(-24 * time.Hour), 0, true},
		{"negative disables the window", now.Add(-24 * time.Hour), -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWithin(tt.instant, now, tt.maxAge))
		})
	}
}

func TestNotBeforeOk(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	assert.True(t, notBeforeOk(now, now, 0))
	assert.True(t, notBeforeOk(now.Add(-time.Minute), now, 0))
	assert.False(t, notBeforeOk(now.Add(time.Minute), now, 0))

	// Skew pulls a near-future NotBefore back into validity, but only up
	// to the skew itself.
	assert.True(t, notBeforeOk(now.Add(time.Minute), now, 180))
	assert.True(t, notBeforeOk(now.Add(180*time.Second), now, 180))
	assert.False(t, notBeforeOk(now.Add(181*time.Second), now, 180))
}

func TestNotOnOrAfterOk(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	// The boundary is strict: a NotOnOrAfter equal to now is already
	// expired.
	assert.False(t, notOnOrAfterOk(now, now, 0))
	assert.True(t, notOnOrAfterOk(now.Add(time.Second), now, 0))
	assert.False(t, notOnOrAfterOk(now.Add(-time.Second), now, 0))

	// Skew extends the lifetime but the extended boundary stays strict.
	assert.True(t, notOnOrAfterOk(now.Add(-179*time.Second), now, 180))
	assert.False(t, notOnOrAfterOk(now.Add(-180*time.Second), now, 180))
}
