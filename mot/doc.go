// Package mot implements adaptive detection cadence on top of multi-object tracking.
//
// Running an object detector on every video frame is expensive. FrameScheduler runs it only
// every Interval frames and propagates tracks with a constant-velocity Kalman filter
// (StateEstimator) in between. CadenceController watches tracking quality (identity switches,
// lost tracks, detector confidence) and widens the interval while tracking is stable and
// narrows it when quality drops.
//
// Basic usage:
//
//	cfg, err := mot.LoadConfig("stream.yaml")
//	if err != nil {
//		return err
//	}
//	scheduler, err := mot.NewFrameSchedulerFromConfig(cfg, detector,
//		mot.WithLogger(mot.NewSlogLogger(nil)),
//		mot.WithMetrics(metrics.NewPrometheus(nil, "mot")),
//	)
//	if err != nil {
//		return err
//	}
//	for frame := range frames {
//		report, err := scheduler.ProcessFrame(ctx, frame)
//		if err != nil {
//			return err
//		}
//		publish(report.Tracks)
//	}
package mot
