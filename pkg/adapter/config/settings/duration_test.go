package settings_test

import (
	"testing"
	"time"

	"github.com/momeni/ormysql/pkg/adapter/config/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationString(t *testing.T) {
	for d, s := range map[time.Duration]string{
		time.Hour:               "1h",
		90 * time.Minute:        "1h30m",
		2 * time.Minute:         "2m",
		90 * time.Second:        "1m30s",
		1500 * time.Millisecond: "1.5s",
		time.Hour + time.Second: "1h0m1s",
		200 * time.Millisecond:  "200ms",
	} {
		assert.Equal(t, s, settings.Duration(d).String())
	}
}

func TestDurationYAML(t *testing.T) {
	var v struct {
		D *settings.Duration `yaml:"d"`
		N *settings.Duration `yaml:"n"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 1h30m\n"), &v))
	assert.Equal(t, 90*time.Minute, v.D.Std())
	assert.Zero(t, v.N.Std())
	assert.Error(t, yaml.Unmarshal([]byte("d: soon\n"), &v))
}

func TestVerifyRange(t *testing.T) {
	lo, hi := 1, 10
	v := 11
	assert.NoError(t, settings.VerifyRange[int]("x", nil, &lo, &hi))
	err := settings.VerifyRange("x", &v, &lo, &hi)
	assert.EqualError(t, err, "x (11) is greater than 10")
	v = 0
	err = settings.VerifyRange("x", &v, &lo, nil)
	assert.EqualError(t, err, "x (0) is less than 1")
	v = 100
	assert.NoError(t, settings.VerifyRange("x", &v, &lo, nil))
}
