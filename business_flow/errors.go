package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Code lifecycle errors
	ErrUnknownCode        = errors.New("code not found")
	ErrCodeSpaceExhausted = errors.New("code generation attempts exhausted")
	ErrProductNotFound    = errors.New("product not found")
	ErrNoActiveCode       = errors.New("product has no active code")

	// Analytics filter errors
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsUnknownCode(err error) bool {
	return errors.Is(err, ErrUnknownCode)
}

func IsCodeSpaceExhausted(err error) bool {
	return errors.Is(err, ErrCodeSpaceExhausted)
}

func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func IsNoActiveCode(err error) bool {
	return errors.Is(err, ErrNoActiveCode)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
