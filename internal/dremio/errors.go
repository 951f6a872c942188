package dremio

import "fmt"

// ConnectionError is a fatal connection-level failure: authentication,
// network reachability, or TLS negotiation. It aborts the run; nothing
// downstream recovers from it.
type ConnectionError struct {
	HostPort string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.HostPort, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PartialEnumerationError records one schema whose enumeration failed.
// It is non-fatal: the walker logs it, keeps walking the remaining
// schemas, and aggregates these into the run summary.
type PartialEnumerationError struct {
	Database string
	Schema   string
	Err      error
}

func (e *PartialEnumerationError) Error() string {
	subject := e.Database
	if e.Schema != "" {
		subject = e.Database + "." + e.Schema
	}
	return fmt.Sprintf("enumeration of %s failed: %v", subject, e.Err)
}

func (e *PartialEnumerationError) Unwrap() error {
	return e.Err
}
