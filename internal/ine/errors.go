package ine

import "fmt"

// TransportError is returned when an HTTP request fails after the retry
// budget is exhausted (connection errors, 429, 5xx) or when the API rejects
// the request outright (4xx, which is never retried). Status is zero for
// pure network failures. Body carries the last response body, if any.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("ine: HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("ine: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError is returned when an indicator code is unknown to the API.
// Kind is "indicator" (catalogue lookup) or "metadata" (metadata endpoint);
// both carry the code that was requested.
type NotFoundError struct {
	Kind string
	Code string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ine: %s not found: %s", e.Kind, e.Code)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError is returned when an entire payload is unparsable. Excerpt holds
// the leading bytes of the offending payload for diagnosis. Individually bad
// data points never cause a ParseError; they become missing values instead.
type ParseError struct {
	Code    string
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ine: parsing response for %s: %v (payload: %s)", e.Code, e.Err, e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidDimensionError is raised before any network call when a dimension
// filter key is not among the indicator's declared dimensions, or is
// malformed. Value-level validation is intentionally not performed: value
// sets can be large and dynamic, so bad values are left for the API to
// reject.
type InvalidDimensionError struct {
	Code      string
	Key       string
	Available []string
}

func (e *InvalidDimensionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("ine: invalid dimension key %q for indicator %s", e.Key, e.Code)
	}
	return fmt.Sprintf("ine: invalid dimension key %q for indicator %s (available: %v)",
		e.Key, e.Code, e.Available)
}
