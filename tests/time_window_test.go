// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitWindows(t *testing.T) {
	t.Run("NextMinute", func(t *testing.T) {
		at := time.Date(2025, 3, 10, 14, 30, 45, 123456, time.UTC)
		next := utils.NextMinute(at)
		assert.Equal(t, time.Date(2025, 3, 10, 14, 31, 0, 0, time.UTC), next)
	})

	t.Run("NextMinuteOnBoundary", func(t *testing.T) {
		at := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
		next := utils.NextMinute(at)
		assert.Equal(t, time.Date(2025, 3, 10, 14, 31, 0, 0, time.UTC), next)
	})

	t.Run("StartOfDay", func(t *testing.T) {
		at := time.Date(2025, 3, 10, 14, 30, 45, 0, time.Local)
		start := utils.StartOfDay(at)
		assert.Equal(t, 0, start.Hour())
		assert.Equal(t, 0, start.Minute())
		assert.Equal(t, 0, start.Second())
		assert.Equal(t, at.Day(), start.Day())
		assert.True(t, start.Before(at))
	})

	t.Run("NextMidnight", func(t *testing.T) {
		at := time.Date(2025, 3, 10, 23, 59, 59, 0, time.Local)
		midnight := utils.NextMidnight(at)
		assert.True(t, midnight.After(at))
		assert.Equal(t, 0, midnight.Hour())
		assert.Equal(t, utils.StartOfDay(at).AddDate(0, 0, 1), midnight)
	})
}
