package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNameParse     = errors.New("recording name parse error")
	ErrNoMatch       = errors.New("no match found")
	ErrProvider      = errors.New("provider error")
	ErrUpload        = errors.New("upload error")
	ErrNotification  = errors.New("notification error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the short kind recorded in run history and
// metric labels. Nil yields an empty string.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNameParse):
		return "name_parse"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrNotification):
		return "notification"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
