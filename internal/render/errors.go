package render

import "fmt"

// MarkerError reports the marker whose expression failed. The underlying
// sandbox error is reachable through errors.As.
type MarkerError struct {
	Marker string
	Err    error
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Marker, e.Err)
}

func (e *MarkerError) Unwrap() error {
	return e.Err
}
