package mot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestParseConfig_KeepsDefaults(t *testing.T) {
	data := []byte(`
tracker:
  nInit: 5
  association:
    algorithm: greedy
    metric: iou
    minIoU: 0.2
cadence:
  maxInterval: 20
  growthStep: 2
scheduler:
  detectTimeout: 50ms
  labels: [person, car]
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.Tracker.NInit = 5
	expected.Tracker.Association.Algorithm = AssociationGreedy
	expected.Tracker.Association.Metric = CostIoU
	expected.Tracker.Association.MinIoU = 0.2
	expected.Cadence.MaxInterval = 20
	expected.Cadence.GrowthStep = 2
	expected.Scheduler.DetectTimeout = 50 * time.Millisecond
	expected.Scheduler.Labels = []string{"person", "car"}

	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("ParseConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"inverted cadence bounds": "cadence: {minInterval: 5, maxInterval: 2}",
		"unknown algorithm":       "tracker: {association: {algorithm: auction}}",
		"unknown metric":          "tracker: {association: {metric: mahalanobis}}",
		"zero measurement noise":  "tracker: {estimator: {measurementNoise: 0}}",
		"threshold above one":     "scheduler: {confidenceThreshold: 1.5}",
		"negative timeout":        "scheduler: {detectTimeout: -1s}",
		"zero max age":            "tracker: {maxAge: 0}",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := ParseConfig([]byte("tracker: [1, 2"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cadence:\n  window: 25\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Cadence.Window)
	assert.Equal(t, 30, cfg.Tracker.MaxAge)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
