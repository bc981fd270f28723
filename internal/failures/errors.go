package failures

import (
	"errors"
	"fmt"
	"strings"
)

// Per-file error kinds. Every failure recorded in the sink carries exactly
// one of these markers so the summary can classify it.
var (
	ErrScanAccess   = errors.New("scan access error")
	ErrMetadataRead = errors.New("metadata read error")
	ErrRelocate     = errors.New("relocate error")
	ErrHash         = errors.New("hash error")
	ErrQuarantine   = errors.New("quarantine error")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrRelocate
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "file failure"
	}
	return strings.Join(parts, ": ")
}
