package service

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Error kinds. Every error a service returns on purpose unwraps to one of
// these; anything else is an internal failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrProductNotFound    = newError(ErrNotFound, "product not found")
	ErrImageNotFound      = newError(ErrNotFound, "image not found")
	ErrEmailTaken         = newError(ErrConflict, "email already exists")
	ErrSlugTaken          = newError(ErrConflict, "product slug already exists")
	ErrCategoryTaken      = newError(ErrConflict, "category already exists")
	ErrUnknownCategory    = newError(ErrInvalidInput, "category does not exist")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid email or password")
	ErrInvalidOTP         = newError(ErrInvalidInput, "invalid or expired otp")
	ErrOutOfStock         = newError(ErrInvalidInput, "out of stock")
	ErrEmptyImport        = newError(ErrInvalidInput, "no data rows in file")
	ErrUnreadableFile     = newError(ErrInvalidInput, "could not read spreadsheet")
	ErrNoImages           = newError(ErrInvalidInput, "no images uploaded")
	ErrTooManyImages      = newError(ErrInvalidInput, "too many images, at most 10 per request")
	ErrInvalidFileFormat  = newError(ErrInvalidInput, "invalid file format, only .jpg, .jpeg, .png, .gif and .webp are allowed")
	ErrFileSizeExceeded   = newError(ErrInvalidInput, "file size exceeds limit")
	ErrNotAllowed         = newError(ErrUnauthorized, "you do not have permission to modify this user")
	ErrEmailNotSent       = newError(ErrServiceUnavailable, "failed to send otp email")
)

const (
	MaxImageSize     = 5 * 1024 * 1024 // 5MB
	MaxImagesPerCall = 10
	OTPTTLMinutes    = 10
	imageDirProducts = "products"
	imageDirProfiles = "profiles"
)

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func validateImage(fh *multipart.FileHeader) error {
	if fh.Size > MaxImageSize {
		return ErrFileSizeExceeded
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return ErrInvalidFileFormat
	}
	return nil
}

// Message returns the client-facing text of a service error, or "" when err
// carries none.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return ""
}
