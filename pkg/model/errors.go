package model

import (
	"fmt"
)

// MalformedResponseError reports a response body that could not be mapped
// onto a resource, either because it was not valid JSON or because a
// required field was missing.
type MalformedResponseError struct {
	Resource string // Resource being mapped, e.g. "account"
	Field    string // Missing required field, empty for decode failures
	Err      error  // Underlying decode error, if any
}

func (e *MalformedResponseError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("malformed %s response: missing required field %q", e.Resource, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("malformed %s response: %v", e.Resource, e.Err)
	default:
		return fmt.Sprintf("malformed %s response", e.Resource)
	}
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func missingField(resource, field string) error {
	return &MalformedResponseError{Resource: resource, Field: field}
}

func decodeFailed(resource string, err error) error {
	return &MalformedResponseError{Resource: resource, Err: err}
}
