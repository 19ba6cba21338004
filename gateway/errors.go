package gateway

import "fmt"

// RemoteFault is an error payload reported by the control plane, either as
// an HTTP error body or as an errortext field inside a response.
type RemoteFault struct {
	Action  string
	Code    int
	Message string
}

func (e *RemoteFault) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed: %s (code %d)", e.Action, e.Message, e.Code)
	}
	return fmt.Sprintf("%s failed: %s", e.Action, e.Message)
}

// MalformedResponse is a response body that does not match the API
// contract. It surfaces at the boundary instead of as a lookup failure
// deep inside reconciliation logic.
type MalformedResponse struct {
	Action string
	Reason string
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("malformed response for %s: %s", e.Action, e.Reason)
}
