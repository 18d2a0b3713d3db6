// Package batch runs a set of upload candidates through a bounded worker
// pool, classifies each raw response, records successes in the completion
// ledger, and aggregates a per-run report.
package batch

// Status classifies the result of one upload attempt.
type Status string

const (
	// StatusSuccess means the service confirmed the upload.
	StatusSuccess Status = "success"
	// StatusRejected means the service returned a structured error.
	StatusRejected Status = "rejected"
	// StatusTransportFailure means the attempt failed before a usable
	// service reply was obtained (network error, timeout, unparseable body).
	StatusTransportFailure Status = "transport_failure"
)

// Outcome is the classified result of one upload attempt.
type Outcome struct {
	// File is the base filename of the attempted candidate.
	File string
	// Status tags the variant; the remaining fields depend on it.
	Status Status
	// PhotoID is the service-assigned ID, when the success reply carried one.
	PhotoID string
	// Code is the service error code (rejected only).
	Code int
	// Message is the service error message (rejected only).
	Message string
	// Cause is an opaque transport diagnostic (transport failure only).
	Cause string
}

// Success reports whether the outcome confirms a completed upload.
func (o Outcome) Success() bool {
	return o.Status == StatusSuccess
}
