package mot

import (
	"math"
	"time"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// TrackStatus is the lifecycle status of a track
type TrackStatus string

const (
	// TrackTentative is a new track that has not been corrected NInit times in a row yet
	TrackTentative TrackStatus = "tentative"
	// TrackConfirmed is a stable track, exposed to consumers
	TrackConfirmed TrackStatus = "confirmed"
	// TrackLost is a track evicted from the registry
	TrackLost TrackStatus = "lost"
)

// TrailPoint is a single frame position of a track
type TrailPoint struct {
	Frame    int
	Position Point
	// Observed is true when position was corrected with a real detection on that frame
	Observed bool
}

// Track is a persistent hypothesis about one object.
// It owns exactly one StateEstimator for its center and a small Kalman filter for box size.
type Track struct {
	id         int64
	label      string
	classID    int
	status     TrackStatus
	hits       int
	age        int
	confidence float64
	feature    []float64
	width      float64
	height     float64
	estimator  *StateEstimator
	sizeFilter *kalman_filter.Kalman2D
	trail      []TrailPoint
	maxTrail   int
	lastSeen   time.Time
}

func newTrack(id int64, det Detection, frame int, timestamp time.Time, cfg TrackerConfig) *Track {
	box := det.BBox()
	center := box.Center()

	/* Box size filter props: no control input, size drifts only via its own velocity */
	ux := 0.0
	uy := 0.0
	stdDevA := cfg.Estimator.SizeNoise
	stdDevMw := cfg.Estimator.SizeNoise
	stdDevMh := cfg.Estimator.SizeNoise
	sizeFilter := kalman_filter.NewKalman2D(1.0, ux, uy, stdDevA, stdDevMw, stdDevMh, kalman_filter.WithState2D(box.Width, box.Height))

	track := Track{
		id:         id,
		label:      det.Label(),
		classID:    det.ClassID(),
		status:     TrackTentative,
		hits:       1,
		age:        0,
		confidence: det.Confidence(),
		feature:    det.Embedding(),
		width:      box.Width,
		height:     box.Height,
		estimator:  NewStateEstimator(center, cfg.Estimator),
		sizeFilter: sizeFilter,
		trail:      make([]TrailPoint, 0, cfg.MaxTrailLen),
		maxTrail:   cfg.MaxTrailLen,
		lastSeen:   timestamp,
	}
	track.trail = append(track.trail, TrailPoint{Frame: frame, Position: center, Observed: true})
	return &track
}

// GetID returns track's identifier
func (track *Track) GetID() int64 {
	return track.id
}

// GetLabel returns class label. It is frozen once track is confirmed
func (track *Track) GetLabel() string {
	return track.label
}

// GetClassID returns class identifier matching GetLabel
func (track *Track) GetClassID() int {
	return track.classID
}

// GetStatus returns lifecycle status
func (track *Track) GetStatus() TrackStatus {
	return track.status
}

// GetHits returns number of consecutive detection cycles with a real correction
func (track *Track) GetHits() int {
	return track.hits
}

// GetAge returns number of frames since the last real correction
func (track *Track) GetAge() int {
	return track.age
}

// GetConfidence returns confidence of the last matched detection
func (track *Track) GetConfidence() float64 {
	return track.confidence
}

// GetLastSeen returns timestamp of the last real correction
func (track *Track) GetLastSeen() time.Time {
	return track.lastSeen
}

// GetCenter returns current estimated center
func (track *Track) GetCenter() Point {
	return track.estimator.Position()
}

// GetVelocity returns estimated velocity, pixels per frame
func (track *Track) GetVelocity() (float64, float64) {
	return track.estimator.Velocity()
}

// GetBBox returns current estimated bounding box. Right after prediction this is the predicted box
func (track *Track) GetBBox() Rectangle {
	return NewRectFromCenter(track.estimator.Position(), track.width, track.height)
}

// GetTrail returns per-frame positions. Be careful: this is not copy of trail, but reference to it
func (track *Track) GetTrail() []TrailPoint {
	return track.trail
}

// PositionAt returns trail position for the given frame.
// Frames skipped by the detector are back-filled once a later real correction arrives.
func (track *Track) PositionAt(frame int) (Point, bool) {
	for i := len(track.trail) - 1; i >= 0; i-- {
		if track.trail[i].Frame == frame {
			return track.trail[i].Position, true
		}
		if track.trail[i].Frame < frame {
			break
		}
	}
	return Point{}, false
}

// predict advances center and size by one frame and records predicted trail point
func (track *Track) predict(frame int) {
	position := track.estimator.Predict()
	track.sizeFilter.Predict()
	w, h := track.sizeFilter.GetState()
	track.width = math.Max(w, 0)
	track.height = math.Max(h, 0)
	track.appendTrail(TrailPoint{Frame: frame, Position: position})
}

// correct applies real detection. Resets age, increments hits.
// Label follows detections only while track is tentative
func (track *Track) correct(det Detection, frame int, timestamp time.Time, featureSmoothing float64) error {
	center := det.Center()
	err := track.estimator.Correct(center)
	if err != nil {
		return errors.Wrapf(err, "can't correct track %d", track.id)
	}
	box := det.BBox()
	err = track.sizeFilter.Update(box.Width, box.Height)
	if err != nil {
		return errors.Wrapf(&NumericalError{Op: "size", Reason: err.Error()}, "can't correct size of track %d", track.id)
	}
	w, h := track.sizeFilter.GetState()
	track.width = math.Max(w, 0)
	track.height = math.Max(h, 0)

	track.hits++
	track.age = 0
	track.confidence = det.Confidence()
	track.lastSeen = timestamp
	if track.status == TrackTentative {
		track.label = det.Label()
		track.classID = det.ClassID()
	}
	track.feature = smoothFeature(track.feature, det.Embedding(), featureSmoothing)

	position := track.estimator.Position()
	track.setLastTrail(TrailPoint{Frame: frame, Position: position, Observed: true})
	track.backfill()
	return nil
}

// selfCorrect feeds current position back as measurement: bounds covariance growth, injects no information.
// Age is not touched
func (track *Track) selfCorrect() error {
	err := track.estimator.Correct(track.estimator.Position())
	if err != nil {
		return errors.Wrapf(err, "can't self-correct track %d", track.id)
	}
	return nil
}

// miss marks frame without real correction. Hit streak breaks only when the detector actually ran
func (track *Track) miss(detectionFrame bool) {
	track.age++
	if detectionFrame {
		track.hits = 0
	}
}

func (track *Track) confirm() {
	track.status = TrackConfirmed
}

func (track *Track) markLost() {
	track.status = TrackLost
}

func (track *Track) appendTrail(point TrailPoint) {
	track.trail = append(track.trail, point)
	if len(track.trail) > track.maxTrail {
		track.trail = track.trail[1:]
	}
}

func (track *Track) setLastTrail(point TrailPoint) {
	n := len(track.trail)
	if n > 0 && track.trail[n-1].Frame == point.Frame {
		track.trail[n-1] = point
		return
	}
	track.appendTrail(point)
}

// backfill replaces unobserved trail points between the two latest observed ones
// with constant-velocity interpolation between those fixes
func (track *Track) backfill() {
	last := len(track.trail) - 1
	if last < 1 || !track.trail[last].Observed {
		return
	}
	prev := -1
	for i := last - 1; i >= 0; i-- {
		if track.trail[i].Observed {
			prev = i
			break
		}
	}
	if prev < 0 || prev == last-1 {
		return
	}
	from := track.trail[prev]
	to := track.trail[last]
	span := float64(to.Frame - from.Frame)
	if span <= 0 {
		return
	}
	for i := prev + 1; i < last; i++ {
		t := float64(track.trail[i].Frame-from.Frame) / span
		track.trail[i].Position = lerp(from.Position, to.Position, t)
	}
}
