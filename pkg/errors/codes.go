package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeValidation indicates the input is malformed; fix input and resubmit.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeNotFound indicates the referenced resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDuplicateResource indicates a unique-key collision on creation.
	ErrCodeDuplicateResource ErrorCode = "DUPLICATE_RESOURCE"
	// ErrCodeUpstream indicates an external service call failed; retry the same action.
	ErrCodeUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrCodeParse indicates a stored payload was malformed on read.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
	// ErrCodeDatabase indicates a storage operation failed.
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstream: true,
	ErrCodeDatabase: true,
}

// IsRetryableCode reports whether retrying the same action can succeed
// without the caller changing its input.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
