package mot

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AssociationAlgorithm selects Associator implementation built from configuration
type AssociationAlgorithm string

const (
	// AssociationHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	AssociationHungarian AssociationAlgorithm = "hungarian"
	// AssociationGreedy matches cheapest pairs first. Faster, but potentially suboptimal
	AssociationGreedy AssociationAlgorithm = "greedy"
)

// CostMetric selects positional term of the association cost
type CostMetric string

const (
	// CostDistance is center-to-center distance between predicted track position and detection, normalized by MaxDistance
	CostDistance CostMetric = "distance"
	// CostIoU is 1-IoU between predicted track box and detection box
	CostIoU CostMetric = "iou"
)

// EstimatorConfig holds noise magnitudes for the constant-velocity Kalman filter.
type EstimatorConfig struct {
	// ProcessNoise is the diagonal of Q (pixels² per frame)
	ProcessNoise float64 `yaml:"processNoise"`
	// MeasurementNoise is the diagonal of R (pixels²). Must be strictly positive so S is always invertible
	MeasurementNoise float64 `yaml:"measurementNoise"`
	// InitialPositionVariance is the initial P for x and y
	InitialPositionVariance float64 `yaml:"initialPositionVariance"`
	// InitialVelocityVariance is the initial P for vx and vy. Large value means "velocity unknown"
	InitialVelocityVariance float64 `yaml:"initialVelocityVariance"`
	// SizeNoise is the standard deviation used by box size (width, height) smoothing filter
	SizeNoise float64 `yaml:"sizeNoise"`
}

// AssociationConfig describes how cost matrix is built and solved.
type AssociationConfig struct {
	Algorithm AssociationAlgorithm `yaml:"algorithm"`
	Metric    CostMetric           `yaml:"metric"`
	// MaxDistance is the gate for CostDistance (pixels). Pairs further than that are never matched
	MaxDistance float64 `yaml:"maxDistance"`
	// MinIoU is the gate for CostIoU
	MinIoU float64 `yaml:"minIoU"`
	// AppearanceWeight blends appearance cosine distance into the cost, [0, 1]. Used only when both sides have embeddings
	AppearanceWeight float64 `yaml:"appearanceWeight"`
	// FeatureSmoothing is EMA factor for the track's appearance feature, [0, 1). Higher keeps more history
	FeatureSmoothing float64 `yaml:"featureSmoothing"`
}

// TrackerConfig configures TrackRegistry.
type TrackerConfig struct {
	// NInit is the number of consecutive real corrections needed for confirmation
	NInit int `yaml:"nInit"`
	// MaxAge is the number of frames without real correction a track survives. Evicted when age exceeds it
	MaxAge int `yaml:"maxAge"`
	// SelfCorrect enables synthetic self-measurement for unmatched confirmed tracks
	SelfCorrect bool `yaml:"selfCorrect"`
	// MaxTrailLen caps the per-track trail of per-frame positions
	MaxTrailLen int `yaml:"maxTrailLen"`

	Estimator   EstimatorConfig   `yaml:"estimator"`
	Association AssociationConfig `yaml:"association"`
}

// CadenceConfig configures CadenceController.
type CadenceConfig struct {
	MinInterval int `yaml:"minInterval"`
	MaxInterval int `yaml:"maxInterval"`
	// InitialInterval defaults to MinInterval when zero
	InitialInterval int `yaml:"initialInterval"`
	// Window is the number of frames between interval recalculations
	Window int `yaml:"window"`

	// Weights of the quality penalty:
	// penalty = SwitchWeight*switches + LostWeight*lost + ConfidenceWeight*max(0, ConfidenceFloor-meanConfidence)
	// interval += round(GrowthStep - penalty)
	SwitchWeight     float64 `yaml:"switchWeight"`
	LostWeight       float64 `yaml:"lostWeight"`
	ConfidenceWeight float64 `yaml:"confidenceWeight"`
	ConfidenceFloor  float64 `yaml:"confidenceFloor"`
	GrowthStep       float64 `yaml:"growthStep"`
}

// SchedulerConfig configures FrameScheduler.
type SchedulerConfig struct {
	// ConfidenceThreshold drops detections below it, [0, 1]
	ConfidenceThreshold float64 `yaml:"confidenceThreshold"`
	// DetectTimeout bounds a single detector call. Zero means no timeout
	DetectTimeout time.Duration `yaml:"detectTimeout"`
	// Labels maps detector class IDs to human-readable labels
	Labels []string `yaml:"labels"`
}

// Config is the full configuration of a single stream.
//
// All duration fields accept standard Go duration strings like "50ms", "2s".
type Config struct {
	Tracker   TrackerConfig   `yaml:"tracker"`
	Cadence   CadenceConfig   `yaml:"cadence"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// DefaultEstimatorConfig returns default noise magnitudes
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		ProcessNoise:            1.0,
		MeasurementNoise:        1.0,
		InitialPositionVariance: 10.0,
		InitialVelocityVariance: 100.0,
		SizeNoise:               1.0,
	}
}

// DefaultAssociationConfig returns default association settings
func DefaultAssociationConfig() AssociationConfig {
	return AssociationConfig{
		Algorithm:        AssociationHungarian,
		Metric:           CostDistance,
		MaxDistance:      50.0,
		MinIoU:           0.3,
		AppearanceWeight: 0.0,
		FeatureSmoothing: 0.9,
	}
}

// DefaultTrackerConfig returns default tracker settings
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		NInit:       3,
		MaxAge:      30,
		SelfCorrect: true,
		MaxTrailLen: 150,
		Estimator:   DefaultEstimatorConfig(),
		Association: DefaultAssociationConfig(),
	}
}

// DefaultCadenceConfig returns default cadence settings
func DefaultCadenceConfig() CadenceConfig {
	return CadenceConfig{
		MinInterval:      1,
		MaxInterval:      10,
		InitialInterval:  1,
		Window:           100,
		SwitchWeight:     2.0,
		LostWeight:       3.0,
		ConfidenceWeight: 5.0,
		ConfidenceFloor:  0.5,
		GrowthStep:       1.0,
	}
}

// DefaultSchedulerConfig returns default scheduler settings
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ConfidenceThreshold: 0.3,
		DetectTimeout:       0,
	}
}

// DefaultConfig returns configuration with all defaults applied
func DefaultConfig() Config {
	return Config{
		Tracker:   DefaultTrackerConfig(),
		Cadence:   DefaultCadenceConfig(),
		Scheduler: DefaultSchedulerConfig(),
	}
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted keys keep their defaults.
// The result is validated.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "can't decode YAML configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "can't read configuration file '%s'", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "configuration file '%s'", path)
	}
	return cfg, nil
}

// Validate checks every section
func (cfg Config) Validate() error {
	if err := cfg.Tracker.Validate(); err != nil {
		return err
	}
	if err := cfg.Cadence.Validate(); err != nil {
		return err
	}
	return cfg.Scheduler.Validate()
}

// Validate checks noise magnitudes
func (cfg EstimatorConfig) Validate() error {
	if !(cfg.ProcessNoise > 0) {
		return configError("processNoise", "must be positive, got %v", cfg.ProcessNoise)
	}
	if !(cfg.MeasurementNoise > 0) {
		return configError("measurementNoise", "must be positive, got %v", cfg.MeasurementNoise)
	}
	if !(cfg.InitialPositionVariance > 0) {
		return configError("initialPositionVariance", "must be positive, got %v", cfg.InitialPositionVariance)
	}
	if !(cfg.InitialVelocityVariance > 0) {
		return configError("initialVelocityVariance", "must be positive, got %v", cfg.InitialVelocityVariance)
	}
	if !(cfg.SizeNoise > 0) {
		return configError("sizeNoise", "must be positive, got %v", cfg.SizeNoise)
	}
	return nil
}

// Validate checks association settings
func (cfg AssociationConfig) Validate() error {
	switch cfg.Algorithm {
	case AssociationHungarian, AssociationGreedy:
	default:
		return configError("algorithm", "unknown value '%s'", cfg.Algorithm)
	}
	switch cfg.Metric {
	case CostDistance:
		if !(cfg.MaxDistance > 0) {
			return configError("maxDistance", "must be positive, got %v", cfg.MaxDistance)
		}
	case CostIoU:
		if cfg.MinIoU < 0 || cfg.MinIoU >= 1 {
			return configError("minIoU", "must be in [0, 1), got %v", cfg.MinIoU)
		}
	default:
		return configError("metric", "unknown value '%s'", cfg.Metric)
	}
	if cfg.AppearanceWeight < 0 || cfg.AppearanceWeight > 1 {
		return configError("appearanceWeight", "must be in [0, 1], got %v", cfg.AppearanceWeight)
	}
	if cfg.FeatureSmoothing < 0 || cfg.FeatureSmoothing >= 1 {
		return configError("featureSmoothing", "must be in [0, 1), got %v", cfg.FeatureSmoothing)
	}
	return nil
}

// Validate checks tracker lifecycle settings and nested sections
func (cfg TrackerConfig) Validate() error {
	if cfg.NInit < 1 {
		return configError("nInit", "must be positive, got %d", cfg.NInit)
	}
	if cfg.MaxAge < 1 {
		return configError("maxAge", "must be positive, got %d", cfg.MaxAge)
	}
	if cfg.MaxTrailLen < 1 {
		return configError("maxTrailLen", "must be positive, got %d", cfg.MaxTrailLen)
	}
	if err := cfg.Estimator.Validate(); err != nil {
		return err
	}
	return cfg.Association.Validate()
}

// Validate checks cadence bounds and weights
func (cfg CadenceConfig) Validate() error {
	if cfg.MinInterval < 1 {
		return configError("minInterval", "must be positive, got %d", cfg.MinInterval)
	}
	if cfg.MaxInterval < 1 {
		return configError("maxInterval", "must be positive, got %d", cfg.MaxInterval)
	}
	if cfg.MinInterval > cfg.MaxInterval {
		return configError("minInterval", "%d is greater than maxInterval %d", cfg.MinInterval, cfg.MaxInterval)
	}
	if cfg.InitialInterval != 0 && (cfg.InitialInterval < cfg.MinInterval || cfg.InitialInterval > cfg.MaxInterval) {
		return configError("initialInterval", "%d is outside of [%d, %d]", cfg.InitialInterval, cfg.MinInterval, cfg.MaxInterval)
	}
	if cfg.Window < 1 {
		return configError("window", "must be positive, got %d", cfg.Window)
	}
	if cfg.SwitchWeight < 0 || cfg.LostWeight < 0 || cfg.ConfidenceWeight < 0 {
		return configError("weights", "must be non-negative, got switch=%v lost=%v confidence=%v", cfg.SwitchWeight, cfg.LostWeight, cfg.ConfidenceWeight)
	}
	if cfg.ConfidenceFloor < 0 || cfg.ConfidenceFloor > 1 {
		return configError("confidenceFloor", "must be in [0, 1], got %v", cfg.ConfidenceFloor)
	}
	if cfg.GrowthStep < 0 {
		return configError("growthStep", "must be non-negative, got %v", cfg.GrowthStep)
	}
	return nil
}

// Validate checks scheduler settings
func (cfg SchedulerConfig) Validate() error {
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return configError("confidenceThreshold", "must be in [0, 1], got %v", cfg.ConfidenceThreshold)
	}
	if cfg.DetectTimeout < 0 {
		return configError("detectTimeout", "must be non-negative, got %v", cfg.DetectTimeout)
	}
	return nil
}
