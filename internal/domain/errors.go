package domain

import "errors"

// Machine-readable error codes surfaced to callers. Guests see the coarse
// code only; detail stays in host/operator logs.
const (
	CodeNotVerified         = "NOT_VERIFIED"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	CodeVerificationFailed  = "VERIFICATION_FAILED"
	CodeEventNotActive      = "EVENT_NOT_ACTIVE"
	CodeGuestAccessDisabled = "GUEST_ACCESS_DISABLED"
	CodeRSVPDeadlinePassed  = "RSVP_DEADLINE_PASSED"
	CodeMenuRequired        = "MENU_REQUIRED"
	CodeMenuUnknown         = "MENU_OPTION_NOT_FOUND"
	CodeGuestNotFound       = "GUEST_NOT_FOUND"
	CodeEventNotFound       = "EVENT_NOT_FOUND"
	CodeEventNotVisible     = "EVENT_NOT_VISIBLE"
	CodePhotoNotFound       = "PHOTO_NOT_FOUND"
	CodeTier3Required       = "TIER_3_REQUIRED"
	CodePostEventDisabled   = "POST_EVENT_DISABLED"
	CodePostEventNotAllowed = "POST_EVENT_NOT_ALLOWED"
	CodeUploadDisabled      = "GUEST_PHOTO_UPLOAD_DISABLED"
	CodeStorageExpired      = "STORAGE_EXPIRED"
	CodeInvalidImage        = "INVALID_IMAGE_BASE64"
	CodeInvalidFileSize     = "INVALID_FILE_SIZE"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidState        = "INVALID_STATE"
	CodeForbidden           = "FORBIDDEN"
	CodeUnknown             = "UNKNOWN"
)

// Error is the tagged error services return where callers branch on the code.
type Error struct {
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code
}

func NewError(code string) *Error {
	return &Error{Code: code}
}

func NewErrorWithDetail(code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// CodeOf extracts the machine code from an error chain, or CodeUnknown.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
