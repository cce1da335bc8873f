package backup

import (
	"sync"
	"sync/atomic"
)

// ProgressStage identifies which phase of a run emitted a progress report.
type ProgressStage string

const (
	StageCollecting ProgressStage = "collecting"
	StageDeleted    ProgressStage = "deleted"
)

// ProgressReporter receives serialized progress callbacks during a run.
type ProgressReporter func(stage ProgressStage, processed, total int64, file string)

// runState holds the mutable state shared by every worker and the sweeper
// within a single run: the AND-merged success flag, the monotonic
// processed counter, and the mutex-serialized progress reporter.
type runState struct {
	success   atomic.Bool
	processed atomic.Int64
	reportMu  sync.Mutex
	report    ProgressReporter
}

func newRunState(report ProgressReporter) *runState {
	rs := &runState{report: report}
	rs.success.Store(true)
	return rs
}

// fail writes false into the success flag. It never writes true; multiple
// concurrent failures are idempotent.
func (rs *runState) fail() {
	rs.success.Store(false)
}

func (rs *runState) ok() bool {
	return rs.success.Load()
}

func (rs *runState) reportCollecting(file string) {
	rs.reportMu.Lock()
	defer rs.reportMu.Unlock()
	n := rs.processed.Add(1)
	if rs.report != nil {
		rs.report(StageCollecting, n, 0, file)
	}
}

func (rs *runState) reportDeleted(file string) {
	rs.reportMu.Lock()
	defer rs.reportMu.Unlock()
	if rs.report != nil {
		rs.report(StageDeleted, 0, 0, file)
	}
}
