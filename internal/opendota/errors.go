package opendota

import (
	"fmt"

	"matchreel/internal/services"
)

// ProviderError reports a failed or malformed OpenDota response.
type ProviderError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("opendota %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("opendota %s: status %d", e.Endpoint, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("opendota %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("opendota %s: request failed", e.Endpoint)
	}
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrProvider}
	}
	return []error{services.ErrProvider, e.Err}
}
