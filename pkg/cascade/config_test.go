package cascade_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/cascade"
)

func TestParseConfigYAML(t *testing.T) {
	t.Run("duration strings and numeric seconds", func(t *testing.T) {
		cfg, err := cascade.ParseConfigYAML([]byte(`
- target: slack
  delay: 5m
- target: sms
  delay: 600
  options:
    urgent: true
- target: push
  delay: "90"
`))
		require.NoError(t, err)
		require.Len(t, cfg, 3)

		assert.Equal(t, "slack", cfg[0].Target)
		assert.Equal(t, 5*time.Minute, cfg[0].Delay.Duration)

		assert.Equal(t, 10*time.Minute, cfg[1].Delay.Duration)
		assert.Equal(t, map[string]any{"urgent": true}, cfg[1].Options)

		assert.Equal(t, 90*time.Second, cfg[2].Delay.Duration)
	})

	t.Run("missing delay stays nil", func(t *testing.T) {
		cfg, err := cascade.ParseConfigYAML([]byte(`
- target: slack
`))
		require.NoError(t, err)
		require.Len(t, cfg, 1)
		assert.Nil(t, cfg[0].Delay)
	})

	t.Run("garbage delay", func(t *testing.T) {
		_, err := cascade.ParseConfigYAML([]byte(`
- target: slack
  delay: soon
`))
		assert.ErrorIs(t, err, cascade.ErrInvalidConfig)
	})

	t.Run("negative delay", func(t *testing.T) {
		_, err := cascade.ParseConfigYAML([]byte(`
- target: slack
  delay: -5
`))
		assert.ErrorIs(t, err, cascade.ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("empty config", func(t *testing.T) {
		err := cascade.Config{}.Validate()
		require.ErrorIs(t, err, cascade.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "cascade config cannot be empty")
	})

	t.Run("missing delay", func(t *testing.T) {
		err := cascade.Config{{Target: "slack"}}.Validate()
		require.ErrorIs(t, err, cascade.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "step 0: missing delay")
	})

	t.Run("collects every violation", func(t *testing.T) {
		err := cascade.Config{
			{Target: "slack"},
			{Delay: cascade.DelayOf(time.Minute)},
		}.Validate()
		require.ErrorIs(t, err, cascade.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "step 0: missing delay")
		assert.Contains(t, err.Error(), "step 1: missing target")
	})

	t.Run("valid config", func(t *testing.T) {
		err := cascade.Config{
			{Target: "slack", Delay: cascade.DelayOf(5 * time.Minute)},
			{Target: "sms", Delay: cascade.DelayOf(10 * time.Minute)},
		}.Validate()
		assert.NoError(t, err)
	})
}

func TestFireTask_JSONRoundTrip(t *testing.T) {
	task := cascade.FireTask{
		NotificationID: "n-1",
		Config: cascade.Config{
			{Target: "slack", Delay: cascade.DelayOf(5 * time.Minute), Options: map[string]any{"channel": "#ops"}},
			{Target: "sms", Delay: cascade.DelayOf(90 * time.Second)},
		},
		StepIndex: 1,
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded cascade.FireTask
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, task.NotificationID, decoded.NotificationID)
	assert.Equal(t, task.StepIndex, decoded.StepIndex)
	require.Len(t, decoded.Config, 2)
	assert.Equal(t, 5*time.Minute, decoded.Config[0].Delay.Duration)
	assert.Equal(t, 90*time.Second, decoded.Config[1].Delay.Duration)
	assert.Equal(t, map[string]any{"channel": "#ops"}, decoded.Config[0].Options)
}
