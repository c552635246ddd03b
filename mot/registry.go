package mot

import (
	"sort"
	"time"
)

// RegistryState distinguishes registry that has never seen a detection from one that is tracking
type RegistryState string

const (
	// RegistryColdStart means no detection has been processed yet (or after Reset). Scheduler must run detector
	RegistryColdStart RegistryState = "cold_start"
	// RegistryTracking means tracks may be propagated without detector
	RegistryTracking RegistryState = "tracking"
)

// TrackReport is the externally visible view of a confirmed track
type TrackReport struct {
	ID     int64
	BBox   Rectangle
	Label  string
	Status TrackStatus
}

// UpdateResult is returned by TrackRegistry.Update and TrackRegistry.Coast
type UpdateResult struct {
	// Frame is the registry frame index the update was applied to
	Frame int
	// Confirmed tracks sorted by identity
	Confirmed []TrackReport
	// Created identities of new tentative tracks
	Created []int64
	// Evicted identities (age exceeded MaxAge or numerical failure)
	Evicted []int64
	// NumericalFailures is the number of tracks force-evicted because of NumericalError
	NumericalFailures int
	// Matched is the number of tracks corrected with real detection
	Matched int
}

// TrackRegistry owns all live tracks of a single stream, keyed by identity.
// Not safe for concurrent use: updates must be applied strictly in frame order.
type TrackRegistry struct {
	cfg        TrackerConfig
	associator Associator
	logger     Logger
	tracks     map[int64]*Track
	nextID     int64
	frame      int
	state      RegistryState
}

// NewTrackRegistry creates registry. Nil associator means one built from cfg.Association; nil logger discards logs
func NewTrackRegistry(cfg TrackerConfig, associator Associator, logger Logger) (*TrackRegistry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if associator == nil {
		associator = NewAssociator(cfg.Association)
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &TrackRegistry{
		cfg:        cfg,
		associator: associator,
		logger:     logger,
		tracks:     make(map[int64]*Track),
		nextID:     1,
		state:      RegistryColdStart,
	}, nil
}

// State returns whether registry is in cold start
func (registry *TrackRegistry) State() RegistryState {
	return registry.state
}

// Frame returns index the next update will be applied to
func (registry *TrackRegistry) Frame() int {
	return registry.frame
}

// Len returns number of live tracks (tentative and confirmed)
func (registry *TrackRegistry) Len() int {
	return len(registry.tracks)
}

// Get returns live track by identity
func (registry *TrackRegistry) Get(id int64) (*Track, bool) {
	track, ok := registry.tracks[id]
	return track, ok
}

// Tracks returns live tracks sorted by identity
func (registry *TrackRegistry) Tracks() []*Track {
	ids := registry.sortedIDs()
	tracks := make([]*Track, len(ids))
	for i, id := range ids {
		tracks[i] = registry.tracks[id]
	}
	return tracks
}

// Reset drops every track and returns registry to cold start.
// Identities and frame index keep growing: identities are never reused
func (registry *TrackRegistry) Reset() {
	registry.tracks = make(map[int64]*Track)
	registry.state = RegistryColdStart
}

// Update processes one frame. Empty detections mean tracking-only frame.
//
// Steps: predict every track; associate detections (if any); correct matched tracks;
// create tracks for unmatched detections; age unmatched tracks (synthetic self-correction for confirmed ones)
// and evict those whose age exceeded MaxAge.
func (registry *TrackRegistry) Update(detections []Detection, timestamp time.Time) UpdateResult {
	frame := registry.frame
	registry.frame++
	result := UpdateResult{Frame: frame}

	if registry.state == RegistryColdStart {
		if len(detections) == 0 {
			return result
		}
		for i := range detections {
			result.Created = append(result.Created, registry.register(detections[i], frame, timestamp))
		}
		registry.state = RegistryTracking
		result.Confirmed = registry.confirmedReports()
		return result
	}

	tracks := registry.Tracks()
	for _, track := range tracks {
		track.predict(frame)
	}

	matchedTracks := make([]bool, len(tracks))
	unmatchedDetections := sequence(len(detections))
	if len(detections) > 0 && len(tracks) > 0 {
		cost := costMatrix(tracks, detections, registry.cfg.Association)
		var matches [][2]int
		matches, _, unmatchedDetections = registry.associator.Associate(cost)
		for _, match := range matches {
			track := tracks[match[0]]
			matchedTracks[match[0]] = true
			err := track.correct(detections[match[1]], frame, timestamp, registry.cfg.Association.FeatureSmoothing)
			if err != nil {
				registry.logger.Warn("track evicted on numerical failure", "track_id", track.id, "frame", frame, "error", err)
				registry.evict(track, &result)
				result.NumericalFailures++
				continue
			}
			result.Matched++
			if track.status == TrackTentative && track.hits >= registry.cfg.NInit {
				track.confirm()
				registry.logger.Debug("track confirmed", "track_id", track.id, "label", track.label, "frame", frame)
			}
		}
	}

	detectionFrame := len(detections) > 0
	for i, track := range tracks {
		if matchedTracks[i] {
			continue
		}
		track.miss(detectionFrame)
		if track.age > registry.cfg.MaxAge {
			registry.evict(track, &result)
			continue
		}
		if track.status == TrackConfirmed && registry.cfg.SelfCorrect {
			if err := track.selfCorrect(); err != nil {
				registry.logger.Warn("track evicted on numerical failure", "track_id", track.id, "frame", frame, "error", err)
				registry.evict(track, &result)
				result.NumericalFailures++
			}
		}
	}

	for _, detIdx := range unmatchedDetections {
		result.Created = append(result.Created, registry.register(detections[detIdx], frame, timestamp))
	}

	result.Confirmed = registry.confirmedReports()
	return result
}

// Coast handles a missing frame (camera stall, dropped frame): every track is predicted and aged,
// nothing is corrected. Tracks past MaxAge are evicted.
func (registry *TrackRegistry) Coast(timestamp time.Time) UpdateResult {
	frame := registry.frame
	registry.frame++
	result := UpdateResult{Frame: frame}
	for _, track := range registry.Tracks() {
		track.predict(frame)
		track.miss(false)
		if track.age > registry.cfg.MaxAge {
			registry.evict(track, &result)
		}
	}
	result.Confirmed = registry.confirmedReports()
	return result
}

func (registry *TrackRegistry) register(det Detection, frame int, timestamp time.Time) int64 {
	id := registry.nextID
	registry.nextID++
	track := newTrack(id, det, frame, timestamp, registry.cfg)
	if track.hits >= registry.cfg.NInit {
		track.confirm()
	}
	registry.tracks[id] = track
	return id
}

func (registry *TrackRegistry) evict(track *Track, result *UpdateResult) {
	track.markLost()
	delete(registry.tracks, track.id)
	result.Evicted = append(result.Evicted, track.id)
	registry.logger.Debug("track evicted", "track_id", track.id, "age", track.age, "frame", result.Frame)
}

func (registry *TrackRegistry) confirmedReports() []TrackReport {
	reports := make([]TrackReport, 0, len(registry.tracks))
	for _, id := range registry.sortedIDs() {
		track := registry.tracks[id]
		if track.status != TrackConfirmed {
			continue
		}
		reports = append(reports, TrackReport{
			ID:     track.id,
			BBox:   track.GetBBox(),
			Label:  track.label,
			Status: track.status,
		})
	}
	return reports
}

func (registry *TrackRegistry) sortedIDs() []int64 {
	ids := make([]int64, 0, len(registry.tracks))
	for id := range registry.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
