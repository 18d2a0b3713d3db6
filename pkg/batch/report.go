package batch

import "sync"

// Report aggregates the outcomes of one run. It is built incrementally as
// outcomes arrive and is safe for concurrent recording.
type Report struct {
	mu sync.Mutex

	// Attempted is the number of candidates that produced an outcome.
	Attempted int
	// Succeeded is the number of confirmed uploads.
	Succeeded int
	// Rejected is the number of service-side rejections.
	Rejected int
	// Failed is the number of transport-level failures.
	Failed int
	// Failures holds every non-success outcome, in completion order.
	Failures []Outcome
}

// record folds one outcome into the counters.
func (r *Report) record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Attempted++

	switch o.Status {
	case StatusSuccess:
		r.Succeeded++
	case StatusRejected:
		r.Rejected++
		r.Failures = append(r.Failures, o)
	case StatusTransportFailure:
		r.Failed++
		r.Failures = append(r.Failures, o)
	}
}

// AllSucceeded reports whether every attempted candidate uploaded cleanly.
func (r *Report) AllSucceeded() bool {
	return r.Attempted == r.Succeeded
}
