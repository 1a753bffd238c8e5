// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"strings"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

const maxDetailLen = 160

// reasonError pairs a sentinel error class with a typed ReasonCode and an
// optional free-text detail for logs (never for API responses).
type reasonError struct {
	class  error
	reason model.ReasonCode
	detail string
	err    error
}

func (e *reasonError) Error() string {
	if e.err != nil {
		return string(e.reason) + ": " + e.err.Error()
	}
	return string(e.reason)
}

func (e *reasonError) Unwrap() error { return e.class }

func (e *reasonError) Is(target error) bool {
	return errors.Is(e.class, target)
}

// NewReasonError wraps class (one of the lifecycle sentinel errors) with a
// stable ReasonCode and an optional underlying cause.
func NewReasonError(class error, reason model.ReasonCode, cause error) error {
	return &reasonError{class: class, reason: reason, err: cause}
}

// NewReasonErrorWithDetail additionally carries a sanitized free-text detail,
// truncated and newline-stripped so it is safe to log.
func NewReasonErrorWithDetail(class error, reason model.ReasonCode, detail string, cause error) error {
	return &reasonError{class: class, reason: reason, detail: sanitizeDetail(detail), err: cause}
}

// ReasonOf extracts the ReasonCode from err, if it (or something it wraps)
// is a reasonError. Returns RUnknown otherwise.
func ReasonOf(err error) model.ReasonCode {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	return model.RUnknown
}

func sanitizeDetail(detail string) string {
	detail = strings.ReplaceAll(detail, "\n", " ")
	detail = strings.ReplaceAll(detail, "\r", " ")
	if len(detail) > maxDetailLen {
		return detail[:maxDetailLen]
	}
	return detail
}
