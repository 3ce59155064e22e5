package device

import (
	"context"
	"time"
)

const (
	refreshWindow  = time.Second
	refreshTimeout = 1500 * time.Millisecond
)

// RoundRefreshRate snaps an observed frame rate to a common panel rate.
func RoundRefreshRate(fps float64) int {
	switch {
	case fps >= 140:
		return 144
	case fps >= 110:
		return 120
	case fps >= 80:
		return 90
	case fps >= 55:
		return 60
	default:
		return 30
	}
}

// MeasureRefreshRate counts frames from src over a one second window measured on
// frame timestamps. If the window does not complete within the timeout, or the
// source is unavailable, the default rate is returned with ok=false.
func MeasureRefreshRate(ctx context.Context, src FrameSource) (rate int, ok bool) {
	if src == nil {
		return Defaults.RefreshRate, false
	}
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	frames, available := src.Frames(ctx)
	if !available {
		return Defaults.RefreshRate, false
	}

	var (
		first time.Time
		count int
	)
	for {
		select {
		case <-ctx.Done():
			return Defaults.RefreshRate, false
		case ts, open := <-frames:
			if !open {
				return Defaults.RefreshRate, false
			}
			if first.IsZero() {
				first = ts
				continue
			}
			count++
			if elapsed := ts.Sub(first); elapsed >= refreshWindow {
				return RoundRefreshRate(float64(count) / elapsed.Seconds()), true
			}
		}
	}
}
