package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/form"
)

const (
	TypeInvalidUserData       = "InvalidUserDataException"
	TypeInvalidToken          = "InvalidTokenException"
	TypeInvalidFormData       = "InvalidFormDataException"
	TypeDuplicationNotAllowed = "DuplicationNotAllowedException"
	TypePrimaryDuplication    = "PrimaryDuplicationException"
	TypeInvalidID             = "InvalidIDException"
	TypeRoomReady             = "RoomReadyException"
	TypeNotFound              = "NotFoundException"
	TypeForbidden             = "ForbiddenException"
	TypeTooManyRequests       = "TooManyRequestsException"
	TypeInternalServerError   = "InternalServerError"
)

type ApiError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Err.Error())
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func badRequest(typ, msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Type:       typ,
		Message:    msg,
	}
}

func NewInvalidUserDataError() *ApiError {
	return badRequest(TypeInvalidUserData, `Header should contain "rs-uid", "rs-email" and "Authorization" parameters.`)
}

func NewMalformedTokenError() *ApiError {
	return badRequest(TypeInvalidToken, `Header should contain "Authorization" parameter with Bearer code.`)
}

func NewInvalidTokenError() *ApiError {
	return badRequest(TypeInvalidToken, "User was not found")
}

// NewExpiredSessionError is returned by logout when the presented token is
// no longer the stored one.
func NewExpiredSessionError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Type:       TypeInvalidToken,
		Message:    "Current session token is not valid.",
	}
}

func NewInvalidFormDataError(msg string) *ApiError {
	return badRequest(TypeInvalidFormData, msg)
}

// NewBodyError describes a body the decoder rejected.
func NewBodyError(err error) *ApiError {
	if errors.Is(err, form.ErrInvalidMultipart) {
		return NewInvalidFormDataError("Invalid multipart/form-data request")
	}
	return NewInvalidFormDataError("Invalid post data")
}

func NewDuplicationNotAllowedError() *ApiError {
	return badRequest(TypeDuplicationNotAllowed, "Conversation already exists.")
}

func NewPrimaryDuplicationError(email string) *ApiError {
	return badRequest(TypePrimaryDuplication, fmt.Sprintf("User %s already exists", email))
}

func NewInvalidIDError(msg string) *ApiError {
	return badRequest(TypeInvalidID, msg)
}

func NewRoomReadyError(msg string) *ApiError {
	return badRequest(TypeRoomReady, msg)
}

func NewNotFoundError() *ApiError {
	return badRequest(TypeNotFound, "Email and/or password doesn't exist in the system.")
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Type:       TypeForbidden,
		Message:    "Admin token is missing or invalid.",
	}
}

func NewTooManyRequestsError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusTooManyRequests,
		Type:       TypeTooManyRequests,
		Message:    "Too many requests.",
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Type:       TypeInternalServerError,
		Message:    "internal server error",
		Err:        err,
	}
}
