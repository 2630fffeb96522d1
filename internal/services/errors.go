package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")

	// ErrModelUnavailable aborts a whole run: no file is processed without a model.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrTranscode marks a conversion failure for a single input file.
	ErrTranscode = errors.New("transcode failed")
	// ErrInitialization marks an engine that could not load its model.
	ErrInitialization = errors.New("initialization failed")
	// ErrRecognition marks a failure while the engine was producing segments.
	ErrRecognition = errors.New("recognition failed")
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

// IsRunFatal reports whether err must abort the batch before or between files.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrConfiguration)
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
