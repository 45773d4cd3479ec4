package errors

import (
	"errors"
	"fmt"
)

var (
	ErrLinkNotFound        = errors.New("link not found")
	ErrDuplicateCode       = errors.New("short code already in use")
	ErrGenerationExhausted = errors.New("short code generation exhausted")
	ErrStoreUnavailable    = errors.New("link store unavailable")
)

const (
	CodeGenerationExhausted = "GENERATION_EXHAUSTED"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// BusinessError carries a stable machine code next to the human message.
// Kind is the taxonomy sentinel it matches under errors.Is.
type BusinessError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *BusinessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewStoreUnavailable wraps a backend failure of the given operation.
func NewStoreUnavailable(op string, cause error) *BusinessError {
	return &BusinessError{
		Code:    CodeStoreUnavailable,
		Message: op + " failed",
		Kind:    ErrStoreUnavailable,
		Cause:   cause,
	}
}

func NewGenerationExhausted(attempts int) *BusinessError {
	return &BusinessError{
		Code:    CodeGenerationExhausted,
		Message: fmt.Sprintf("failed to allocate a unique short code after %d attempts", attempts),
		Kind:    ErrGenerationExhausted,
	}
}

// IsValidationError проверяет является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsBusinessError проверяет является ли ошибка бизнес-ошибкой
func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

func GetValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

// GetBusinessError извлекает BusinessError из ошибки
func GetBusinessError(err error) *BusinessError {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
