package model

// TrackStatus represents the approval workflow position of a track.
type TrackStatus string

const (
	// StatusPendingEnrichment is the initial status assigned at ingest.
	StatusPendingEnrichment TrackStatus = "pending_enrichment"
	// StatusPendingCompliance is set once classification and embedding are attached.
	StatusPendingCompliance TrackStatus = "pending_compliance"
	// StatusApproved, StatusRejected and StatusOnHold are set by the
	// compliance stage; the pipeline never moves a track out of them.
	StatusApproved TrackStatus = "approved"
	StatusRejected TrackStatus = "rejected"
	StatusOnHold   TrackStatus = "on_hold"
)

var allStatuses = []TrackStatus{
	StatusPendingEnrichment,
	StatusPendingCompliance,
	StatusApproved,
	StatusRejected,
	StatusOnHold,
}

var statusSet = func() map[TrackStatus]struct{} {
	set := make(map[TrackStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Transitions never move backward. pending_compliance fans out to the three
// terminal statuses via the compliance stage.
var statusTransitions = map[TrackStatus][]TrackStatus{
	StatusPendingEnrichment: {StatusPendingCompliance},
	StatusPendingCompliance: {StatusApproved, StatusRejected, StatusOnHold},
	StatusApproved:          {},
	StatusRejected:          {},
	StatusOnHold:            {},
}

// Valid reports whether s is one of the five named workflow statuses.
func (s TrackStatus) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s TrackStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is a legal
// forward transition.
func (s TrackStatus) CanTransitionTo(next TrackStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// AllStatuses returns the closed set of workflow statuses.
func AllStatuses() []TrackStatus {
	out := make([]TrackStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}
