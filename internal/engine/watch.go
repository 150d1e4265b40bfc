package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/scoring"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// watchLoop credits one minute of watch time to every handle in the presence
// set on each tick. It runs for the lifetime of one session.
func (e *scoreEngine) watchLoop(st *sessionState) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.state != st {
				e.mu.Unlock()
				return
			}
			for handle := range st.minutes {
				st.minutes[handle]++
			}
			watched := len(st.minutes)
			e.mu.Unlock()
			metrics.UpdateWatchedHandles(watched)
		}
	}
}

// resortLoop periodically snapshots the watch minutes and rewrites Standard
// watch scores so the ordering catches up with accrued watch time.
func (e *scoreEngine) resortLoop(st *sessionState) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.resortInterval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.state != st {
				e.mu.Unlock()
				return
			}
			snapshot := make(map[string]float64, len(st.minutes))
			for handle, mins := range st.minutes {
				snapshot[handle] = mins
			}
			e.mu.Unlock()

			if err := e.RecomputeWatch(context.Background(), snapshot); err != nil {
				metrics.RecordErrorByComponent("engine", "watch_resort")
				e.log.Error(context.Background(), "recomputing watch scores", logger.Error(err))
			}
		}
	}
}

// RecomputeWatch converts watch minutes to scores and rewrites every Standard
// submission's watch score in one transaction. Handles absent from the map
// drop to zero.
func (e *scoreEngine) RecomputeWatch(ctx context.Context, minutes map[string]float64) error {
	scores := make(map[string]float64, len(minutes))
	for handle, mins := range minutes {
		if handle == "" {
			continue
		}
		scores[handle] = scoring.WatchScore(mins)
	}
	if err := e.store.RecomputeWatchScores(ctx, scores); err != nil {
		return fmt.Errorf("recompute watch scores: %w", err)
	}
	return nil
}
