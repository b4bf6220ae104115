// Package domain defines the core business entities and errors.
package domain

// UserErrorCode identifies a user-domain failure. Codes are namespaced to
// the user domain and overlap numerically with car codes; callers must route
// by error kind, never by code value alone.
type UserErrorCode int

const (
	UserCodeInvalidLoginOrPassword UserErrorCode = iota + 1
	UserCodeEmailAlreadyExists
	UserCodeLoginAlreadyExists
	UserCodeInvalidFields
	UserCodeMissingFields
	UserCodeUserNotFound
	UserCodeUploadFailed
	UserCodeUnauthorized
	UserCodeUnauthorizedSession
	UserCodeInvalidPhoto
)

// CarErrorCode identifies a car-domain failure.
type CarErrorCode int

const (
	CarCodeUnauthorized CarErrorCode = iota + 1
	CarCodeUnauthorizedSession
	CarCodeLicensePlateExists
	CarCodeInvalidFields
	CarCodeMissingFields
	CarCodeCarNotFound
	CarCodeUploadFailed
	CarCodeInvalidPhoto
)

// UserError is a user-domain error carrying a client-facing message and
// numeric code.
type UserError struct {
	Code    UserErrorCode
	Message string
}

func (e *UserError) Error() string { return e.Message }

// Is reports whether target is a UserError with the same code, so wrapped
// errors still match the predeclared sentinels via errors.Is.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	return ok && t.Code == e.Code
}

// CarError is a car-domain error carrying a client-facing message and
// numeric code.
type CarError struct {
	Code    CarErrorCode
	Message string
}

func (e *CarError) Error() string { return e.Message }

// Is reports whether target is a CarError with the same code.
func (e *CarError) Is(target error) bool {
	t, ok := target.(*CarError)
	return ok && t.Code == e.Code
}

// User-domain sentinels.
var (
	ErrInvalidLoginOrPassword = &UserError{UserCodeInvalidLoginOrPassword, "Invalid login or password"}
	ErrEmailAlreadyExists     = &UserError{UserCodeEmailAlreadyExists, "Email already exists"}
	ErrLoginAlreadyExists     = &UserError{UserCodeLoginAlreadyExists, "Login already exists"}
	ErrUserInvalidFields      = &UserError{UserCodeInvalidFields, "Invalid fields"}
	ErrUserMissingFields      = &UserError{UserCodeMissingFields, "Missing fields"}
	ErrUserNotFound           = &UserError{UserCodeUserNotFound, "User not found"}
	ErrUserUploadFailed       = &UserError{UserCodeUploadFailed, "Failed to upload user photo"}
	ErrUnauthorized           = &UserError{UserCodeUnauthorized, "Unauthorized"}
	ErrUnauthorizedSession    = &UserError{UserCodeUnauthorizedSession, "Unauthorized - invalid session"}
	ErrUserInvalidPhoto       = &UserError{UserCodeInvalidPhoto, "Invalid photo"}
)

// Car-domain sentinels.
var (
	ErrCarUnauthorized        = &CarError{CarCodeUnauthorized, "Unauthorized"}
	ErrCarUnauthorizedSession = &CarError{CarCodeUnauthorizedSession, "Unauthorized - invalid session"}
	ErrLicensePlateExists     = &CarError{CarCodeLicensePlateExists, "License plate already exists"}
	ErrCarInvalidFields       = &CarError{CarCodeInvalidFields, "Invalid fields"}
	ErrCarMissingFields       = &CarError{CarCodeMissingFields, "Missing fields"}
	ErrCarNotFound            = &CarError{CarCodeCarNotFound, "Car not found"}
	ErrCarUploadFailed        = &CarError{CarCodeUploadFailed, "Failed to upload car photo"}
	ErrCarInvalidPhoto        = &CarError{CarCodeInvalidPhoto, "Invalid photo"}
)

// ErrorCode extracts the numeric code from a user- or car-domain error.
// Returns 0 and false for errors outside the two code spaces.
func ErrorCode(err error) (int, bool) {
	switch e := err.(type) {
	case *UserError:
		return int(e.Code), true
	case *CarError:
		return int(e.Code), true
	}
	return 0, false
}
