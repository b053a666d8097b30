package trackapi

import "fmt"

// TransportError reports that the catalog API could not be reached or the
// response body could not be read. Cancellations and timeouts surface here.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("trackapi: transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports a non-2xx response from the catalog API.
type RemoteError struct {
	URL    string
	Status int
	Body   string // truncated response body, for diagnostics
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("trackapi: %s returned status %d", e.URL, e.Status)
}

// DecodeError reports a 2xx response whose body was not the expected JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("trackapi: cannot decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
