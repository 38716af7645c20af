// Package businessflow contains the admin use cases: login, campaign management, users, reports and settings
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Admin authentication errors
	ErrIncorrectCredentials = errors.New("incorrect username or password")
	ErrAdminLoginDisabled   = errors.New("admin login is not configured")

	// Campaign-related errors
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrInvalidCampaignType    = errors.New("invalid campaign type")
	ErrInvalidCampaignContent = errors.New("invalid campaign content")
	ErrCampaignNotRaffle      = errors.New("campaign is not a raffle")

	// User-related errors
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateReceipt = errors.New("receipt already registered")

	// Settings errors
	ErrSettingsUpdateEmpty = errors.New("at least one value must be provided")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
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

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsIncorrectCredentials(err error) bool {
	return errors.Is(err, ErrIncorrectCredentials)
}

func IsAdminLoginDisabled(err error) bool {
	return errors.Is(err, ErrAdminLoginDisabled)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsInvalidCampaignType(err error) bool {
	return errors.Is(err, ErrInvalidCampaignType)
}

func IsInvalidCampaignContent(err error) bool {
	return errors.Is(err, ErrInvalidCampaignContent)
}

func IsCampaignNotRaffle(err error) bool {
	return errors.Is(err, ErrCampaignNotRaffle)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsDuplicateReceipt(err error) bool {
	return errors.Is(err, ErrDuplicateReceipt)
}

func IsSettingsUpdateEmpty(err error) bool {
	return errors.Is(err, ErrSettingsUpdateEmpty)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}

// BusinessErrorCode returns the code of the outermost BusinessError in err's chain
func BusinessErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
