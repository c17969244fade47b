package services

import (
	"errors"
	"reflect"
	"strings"

	"fleet-monitor/internal/repository"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound      = repository.ErrNotFound
	ErrAlreadyExists = repository.ErrAlreadyExists
)

// ValidationError reports a request the services refuse to process. Err, when
// set, holds the underlying validator.ValidationErrors.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validate reports field errors by their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validateStruct(message string, s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return &ValidationError{Message: message, Err: err}
	}
	return nil
}
