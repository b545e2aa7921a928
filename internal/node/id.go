package node

import "github.com/google/uuid"

// NewOpaqueRequestID returns a random request id for callers with no
// natural hashable input to run ComputeRequestID over (e.g. a one-off
// manual request triggered from the CLI). Most request types should
// prefer ComputeRequestID so identical input memoizes to the same id.
func NewOpaqueRequestID(requestType string) string {
	return requestType + ":" + uuid.NewString()
}
