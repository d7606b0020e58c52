package booking

import (
	"fmt"
	"time"
)

// RequestKind tags the customer request awaiting staff approval.
type RequestKind string

const (
	RequestNone         RequestKind = ""
	RequestCancellation RequestKind = "cancellation"
	RequestExtension    RequestKind = "extension"
)

// PendingRequest is the single outstanding customer request on a booking.
// A booking holds at most one, so a cancellation and an extension can never
// be pending together.
type PendingRequest struct {
	kind            RequestKind
	proposedEndDate *time.Time
}

// NoPendingRequest returns the empty request.
func NoPendingRequest() PendingRequest { return PendingRequest{} }

// CancellationPending returns a pending cancellation.
func CancellationPending() PendingRequest {
	return PendingRequest{kind: RequestCancellation}
}

// ExtensionPending returns a pending extension to the proposed end date.
func ExtensionPending(proposed time.Time) PendingRequest {
	return PendingRequest{kind: RequestExtension, proposedEndDate: &proposed}
}

// ParsePendingRequest rebuilds a request from its persisted columns.
func ParsePendingRequest(kind string, proposed *time.Time) (PendingRequest, error) {
	switch RequestKind(kind) {
	case RequestNone:
		return NoPendingRequest(), nil
	case RequestCancellation:
		return CancellationPending(), nil
	case RequestExtension:
		if proposed == nil {
			return PendingRequest{}, fmt.Errorf("extension request without proposed end date")
		}
		return ExtensionPending(*proposed), nil
	default:
		return PendingRequest{}, fmt.Errorf("invalid pending request kind: %s", kind)
	}
}

func (p PendingRequest) Kind() RequestKind { return p.kind }
func (p PendingRequest) IsNone() bool { return p.kind == RequestNone }
func (p PendingRequest) IsCancellation() bool { return p.kind == RequestCancellation }
func (p PendingRequest) IsExtension() bool { return p.kind == RequestExtension }

// ProposedEndDate returns the requested end date of a pending extension, or nil.
func (p PendingRequest) ProposedEndDate() *time.Time {
	if p.proposedEndDate == nil {
		return nil
	}
	t := *p.proposedEndDate
	return &t
}
