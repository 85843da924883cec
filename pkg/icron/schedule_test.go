package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo_Every(t *testing.T) {
	ref := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	info, err := GetTriggerInfo("@every 30s", ref)
	require.NoError(t, err)
	assert.Equal(t, ref.Add(30*time.Second), info.Next)
	assert.Equal(t, 30*time.Second, info.TimeUntilNext)
	assert.Equal(t, "@every 30s", info.Expression)
}

func TestGetTriggerInfo_Standard(t *testing.T) {
	ref := time.Date(2024, 5, 1, 10, 7, 0, 0, time.UTC)

	info, err := GetTriggerInfo("*/15 * * * *", ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), info.Next)
	assert.Equal(t, 8*time.Minute, info.TimeUntilNext)
}

func TestGetTriggerInfo_Invalid(t *testing.T) {
	_, err := GetTriggerInfo("not a cron", time.Now())
	assert.Error(t, err)
}
