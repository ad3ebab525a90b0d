package youtube

import (
	"fmt"

	"matchreel/internal/services"
)

// UploadError reports a failed upload after Attempts tries.
type UploadError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrUpload}
	}
	return []error{services.ErrUpload, e.Err}
}
