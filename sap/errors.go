package sap

import "fmt"

// ErrKind classifies gateway call failures so callers can distinguish
// "SAP unreachable" from "permission denied" from "garbage response".
type ErrKind string

const (
	ErrKindAuth       ErrKind = "auth"       // OAuth token acquisition failed
	ErrKindPermission ErrKind = "permission" // 403 from the function module
	ErrKindRemote     ErrKind = "remote"     // non-200 status
	ErrKindEmpty      ErrKind = "empty"      // 200 with an empty body
	ErrKindMalformed  ErrKind = "malformed"  // 200 with a non-JSON body
	ErrKindTransport  ErrKind = "transport"  // network error or timeout
)

// CallError carries enough detail about a failed SAP call for logging and
// for mapping to an HTTP response.
type CallError struct {
	Procedure  string
	Kind       ErrKind
	StatusCode int
	Body       string
	Err        error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case ErrKindAuth:
		return fmt.Sprintf("error %s: authentication failed: %v", e.Procedure, e.Err)
	case ErrKindPermission:
		return fmt.Sprintf("403 Forbidden - check permissions for %s. Response: %s", e.Procedure, e.Body)
	case ErrKindRemote:
		return fmt.Sprintf("error %s: status %d: %s", e.Procedure, e.StatusCode, e.Body)
	case ErrKindEmpty:
		return fmt.Sprintf("error %s: empty response from SAP", e.Procedure)
	case ErrKindMalformed:
		return fmt.Sprintf("error %s: invalid JSON response - %s", e.Procedure, e.Body)
	default:
		return fmt.Sprintf("error %s: %v", e.Procedure, e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}
