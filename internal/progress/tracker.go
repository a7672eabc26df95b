package progress

// Reporter is the subset of Broadcaster a Tracker needs, so trackers can
// be built in tests without a real Broadcaster.
type Reporter interface {
	UpdateProgress(jobID, profile string, percentage int)
}

// Tracker scopes progress updates for one job's fetch attempt to a
// percentage sub-range, so a multi-stage fetch (probe, download, mux)
// can report smooth overall progress instead of resetting to 0 at each
// stage boundary.
type Tracker struct {
	jobID      string
	profile    string
	broadcaster Reporter
	minPercent int
	maxPercent int
}

// NewTracker creates a Tracker for jobID reporting within [minPercent, maxPercent].
func NewTracker(broadcaster Reporter, jobID, profile string, minPercent, maxPercent int) *Tracker {
	return &Tracker{
		jobID:       jobID,
		profile:     profile,
		broadcaster: broadcaster,
		minPercent:  minPercent,
		maxPercent:  maxPercent,
	}
}

// Update reports current/total progress, scaled into the tracker's range.
func (t *Tracker) Update(current, total int) {
	if t == nil || total <= 0 || t.broadcaster == nil {
		return
	}
	rangeSize := t.maxPercent - t.minPercent
	percentage := t.minPercent + (current * rangeSize / total)
	t.broadcaster.UpdateProgress(t.jobID, t.profile, percentage)
}

// UpdateAbsolute reports an absolute percentage, bypassing the tracker's range.
func (t *Tracker) UpdateAbsolute(percentage int) {
	if t == nil || t.broadcaster == nil {
		return
	}
	t.broadcaster.UpdateProgress(t.jobID, t.profile, percentage)
}
